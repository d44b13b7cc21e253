package export

import (
	"fmt"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/domain"
)

// Writer serializes every canonical record of a run to the export file
type Writer interface {
	// Write replaces the export file with records, in order
	Write(records []domain.Record) error

	// Path returns the export file location
	Path() string
}

// New returns the writer for format ("csv" or "parquet")
func New(format, path string) (Writer, error) {
	switch format {
	case "csv", "":
		return NewCSVWriter(path), nil
	case "parquet":
		return NewParquetWriter(path), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}
