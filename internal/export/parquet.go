package export

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/domain"
)

type parquetRow struct {
	EventName    string `parquet:"name=Event_Name, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	EventDate    int64  `parquet:"name=Event_Date, type=INT64"`
	EventCount   int64  `parquet:"name=Event_Count, type=INT64"`
	IsConversion *bool  `parquet:"name=Is_Conversion, type=BOOLEAN, repetitiontype=OPTIONAL"`
	Channel      string `parquet:"name=Channel, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	EventType    string `parquet:"name=Event_Type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

// ParquetWriter writes the export as a snappy-compressed parquet file
type ParquetWriter struct {
	path string
}

// NewParquetWriter creates a parquet export writer for path
func NewParquetWriter(path string) *ParquetWriter {
	return &ParquetWriter{path: path}
}

// Path implements Writer
func (w *ParquetWriter) Path() string {
	return w.path
}

// Write implements Writer
func (w *ParquetWriter) Write(records []domain.Record) (err error) {
	fw, err := local.NewLocalFileWriter(w.path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() {
		if cerr := fw.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close export file: %w", cerr)
		}
	}()

	pw, err := writer.NewParquetWriter(fw, new(parquetRow), 1)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, record := range records {
		row, err := toParquetRow(record)
		if err != nil {
			return fmt.Errorf("failed to convert export row %d: %w", i, err)
		}
		if err := pw.Write(row); err != nil {
			return fmt.Errorf("failed to write export row %d: %w", i, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}

	return nil
}

func toParquetRow(r domain.Record) (parquetRow, error) {
	date, err := r.EventDateInt()
	if err != nil {
		return parquetRow{}, err
	}
	return parquetRow{
		EventName:    r.EventName,
		EventDate:    date,
		EventCount:   r.EventCount,
		IsConversion: r.IsConversion,
		Channel:      r.Channel,
		EventType:    string(r.EventType),
	}, nil
}
