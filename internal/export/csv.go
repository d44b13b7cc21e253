package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/jszwec/csvutil"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/domain"
)

type csvRow struct {
	EventName    string `csv:"Event Name"`
	EventDate    string `csv:"Event Date"`
	EventCount   int64  `csv:"Event Count"`
	IsConversion string `csv:"Is Conversion"`
	Channel      string `csv:"Channel"`
	EventType    string `csv:"Event Type"`
}

// CSVWriter writes the export as comma separated text with a header row
type CSVWriter struct {
	path string
}

// NewCSVWriter creates a CSV export writer for path
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Path implements Writer
func (w *CSVWriter) Path() string {
	return w.path
}

// Write implements Writer. The file is truncated and the header is written
// even when there are no records.
func (w *CSVWriter) Write(records []domain.Record) (err error) {
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close export file: %w", cerr)
		}
	}()

	cw := csv.NewWriter(f)
	enc := csvutil.NewEncoder(cw)
	enc.AutoHeader = false

	if err := enc.EncodeHeader(csvRow{}); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}

	for i, record := range records {
		if err := enc.Encode(toCSVRow(record)); err != nil {
			return fmt.Errorf("failed to write export row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush export file: %w", err)
	}

	return nil
}

func toCSVRow(r domain.Record) csvRow {
	return csvRow{
		EventName:    r.EventName,
		EventDate:    r.EventDate,
		EventCount:   r.EventCount,
		IsConversion: formatConversion(r.IsConversion),
		Channel:      r.Channel,
		EventType:    string(r.EventType),
	}
}

// formatConversion renders a nullable flag as True, False or empty
func formatConversion(v *bool) string {
	switch {
	case v == nil:
		return ""
	case *v:
		return "True"
	default:
		return "False"
	}
}
