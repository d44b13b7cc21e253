package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/bigquery"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/domain"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/warehouse"
)

var fieldTypes = map[domain.ColumnType]bigquery.FieldType{
	domain.ColumnString:  bigquery.StringFieldType,
	domain.ColumnInteger: bigquery.IntegerFieldType,
	domain.ColumnBoolean: bigquery.BooleanFieldType,
}

// row mirrors the partition table schema
type row struct {
	EventName    string            `bigquery:"Event_Name"`
	EventDate    int64             `bigquery:"Event_Date"`
	EventCount   int64             `bigquery:"Event_Count"`
	IsConversion bigquery.NullBool `bigquery:"Is_Conversion"`
	Channel      string            `bigquery:"Channel"`
	EventType    string            `bigquery:"Event_Type"`
}

// Warehouse implements warehouse.Warehouse for BigQuery. Partition tables
// live in one dataset.
type Warehouse struct {
	client  *bigquery.Client
	dataset string
	log     *zap.Logger
}

// NewWarehouse creates a BigQuery client for projectID
func NewWarehouse(ctx context.Context, projectID, dataset string, log *zap.Logger, opts ...option.ClientOption) (*Warehouse, error) {
	if err := warehouse.ValidateIdentifier(dataset); err != nil {
		return nil, err
	}

	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create BigQuery client: %w", err)
	}

	log.Info("BigQuery client created",
		zap.String("project", projectID),
		zap.String("dataset", dataset))

	return &Warehouse{client: client, dataset: dataset, log: log}, nil
}

// Schema returns the partition table schema in BigQuery form
func Schema() bigquery.Schema {
	schema := make(bigquery.Schema, 0, len(domain.Schema))
	for _, col := range domain.Schema {
		schema = append(schema, &bigquery.FieldSchema{
			Name:     col.Name,
			Type:     fieldTypes[col.Type],
			Required: false,
		})
	}
	return schema
}

// TableExists implements warehouse.Warehouse
func (w *Warehouse) TableExists(ctx context.Context, table string) (bool, error) {
	_, err := w.client.Dataset(w.dataset).Table(table).Metadata(ctx)
	return tableExistsResult(table, err)
}

// CreateTable implements warehouse.Warehouse
func (w *Warehouse) CreateTable(ctx context.Context, table string) error {
	err := w.client.Dataset(w.dataset).Table(table).Create(ctx, &bigquery.TableMetadata{Schema: Schema()})
	if err = createTableResult(table, err); err != nil {
		return err
	}

	w.log.Info("BigQuery partition table created", zap.String("table", table))
	return nil
}

// CountMatching implements warehouse.Warehouse
func (w *Warehouse) CountMatching(ctx context.Context, table string, key domain.DedupKey) (int64, error) {
	if err := warehouse.ValidateIdentifier(table); err != nil {
		return 0, err
	}

	q := w.client.Query(countQuery(w.dataset, table))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "event_name", Value: key.EventName},
		{Name: "event_date", Value: key.EventDate},
		{Name: "event_count", Value: key.EventCount},
		{Name: "channel_group", Value: key.Channel},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to query %s: %w", table, err)
	}

	var values []bigquery.Value
	err = it.Next(&values)
	return countFromRow(table, values, err)
}

// InsertRows implements warehouse.Warehouse using the streaming inserter
func (w *Warehouse) InsertRows(ctx context.Context, table string, records []domain.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	rows, err := toBigQueryRows(records)
	if err != nil {
		return 0, err
	}

	err = w.client.Dataset(w.dataset).Table(table).Inserter().Put(ctx, rows)
	return insertResult(table, len(rows), err)
}

// Close closes the BigQuery client
func (w *Warehouse) Close() error {
	return w.client.Close()
}

func countQuery(dataset, table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM `%s.%s` "+
		"WHERE `%s` = @event_name AND `%s` = @event_date AND `%s` = @event_count AND `%s` = @channel_group",
		dataset, table, domain.ColEventName, domain.ColEventDate, domain.ColEventCount, domain.ColChannel)
}

func toBigQueryRows(records []domain.Record) ([]*row, error) {
	rows, err := warehouse.ToRows(records)
	if err != nil {
		return nil, err
	}

	out := make([]*row, 0, len(rows))
	for _, r := range rows {
		var isConversion bigquery.NullBool
		if r.IsConversion != nil {
			isConversion = bigquery.NullBool{Bool: *r.IsConversion, Valid: true}
		}
		out = append(out, &row{
			EventName:    r.EventName,
			EventDate:    r.EventDate,
			EventCount:   r.EventCount,
			IsConversion: isConversion,
			Channel:      r.Channel,
			EventType:    r.EventType,
		})
	}
	return out, nil
}

func tableExistsResult(table string, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if hasStatus(err, http.StatusNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("failed to get table %s: %w", table, err)
}

func createTableResult(table string, err error) error {
	if err == nil {
		return nil
	}
	if hasStatus(err, http.StatusConflict) {
		return fmt.Errorf("failed to create table %s: %w", table, warehouse.ErrTableExists)
	}
	return fmt.Errorf("failed to create table %s: %w", table, err)
}

// countFromRow reads the single COUNT(*) value. No row counts as zero.
func countFromRow(table string, values []bigquery.Value, err error) (int64, error) {
	if errors.Is(err, iterator.Done) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read count from %s: %w", table, err)
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("empty count row from %s", table)
	}

	count, ok := values[0].(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected count type %T from %s", values[0], table)
	}
	return count, nil
}

// insertResult maps a Put error to the number of rows stored. Rows not
// named in a PutMultiError were accepted.
func insertResult(table string, total int, err error) (int, error) {
	if err == nil {
		return total, nil
	}
	var multi bigquery.PutMultiError
	if errors.As(err, &multi) {
		return total - len(multi), fmt.Errorf("failed to insert %d of %d rows into %s: %w", len(multi), total, table, err)
	}
	return 0, fmt.Errorf("failed to insert rows into %s: %w", table, err)
}

func hasStatus(err error, code int) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}
