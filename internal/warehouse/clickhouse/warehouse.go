package clickhouse

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/domain"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/warehouse"
)

var columnTypes = map[domain.ColumnType]string{
	domain.ColumnString:  "Nullable(String)",
	domain.ColumnInteger: "Nullable(Int64)",
	domain.ColumnBoolean: "Nullable(Bool)",
}

// Warehouse implements warehouse.Warehouse for ClickHouse. Each partition is
// a MergeTree table in the destination database.
type Warehouse struct {
	client *Client
	log    *zap.Logger
}

// NewWarehouse creates a new ClickHouse warehouse
func NewWarehouse(client *Client, log *zap.Logger) *Warehouse {
	return &Warehouse{
		client: client,
		log:    log,
	}
}

// TableExists implements warehouse.Warehouse
func (w *Warehouse) TableExists(ctx context.Context, table string) (bool, error) {
	ref, err := w.tableRef(table)
	if err != nil {
		return false, err
	}

	var exists uint8
	if err := w.client.Conn().QueryRow(ctx, "EXISTS TABLE "+ref).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return exists == 1, nil
}

// CreateTable implements warehouse.Warehouse
func (w *Warehouse) CreateTable(ctx context.Context, table string) error {
	ref, err := w.tableRef(table)
	if err != nil {
		return err
	}

	if err := w.client.Conn().Exec(ctx, createTableQuery(ref)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}

	w.log.Info("ClickHouse partition table created", zap.String("table", table))
	return nil
}

// CountMatching implements warehouse.Warehouse
func (w *Warehouse) CountMatching(ctx context.Context, table string, key domain.DedupKey) (int64, error) {
	ref, err := w.tableRef(table)
	if err != nil {
		return 0, err
	}

	var count uint64
	row := w.client.Conn().QueryRow(ctx, countQuery(ref),
		key.EventName, key.EventDate, key.EventCount, key.Channel)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count matching rows in %s: %w", table, err)
	}
	return int64(count), nil
}

// InsertRows implements warehouse.Warehouse
func (w *Warehouse) InsertRows(ctx context.Context, table string, records []domain.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	ref, err := w.tableRef(table)
	if err != nil {
		return 0, err
	}

	rows, err := warehouse.ToRows(records)
	if err != nil {
		return 0, err
	}

	batch, err := w.client.Conn().PrepareBatch(ctx, insertQuery(ref))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, row := range rows {
		err := batch.Append(
			row.EventName,
			row.EventDate,
			row.EventCount,
			row.IsConversion,
			row.Channel,
			row.EventType,
		)
		if err != nil {
			if abortErr := batch.Abort(); abortErr != nil {
				w.log.Warn("Failed to abort batch", zap.Error(abortErr))
			}
			return 0, fmt.Errorf("failed to append row to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send batch: %w", err)
	}

	return len(rows), nil
}

// Close closes the ClickHouse connection
func (w *Warehouse) Close() error {
	return w.client.Close()
}

func (w *Warehouse) tableRef(table string) (string, error) {
	if err := warehouse.ValidateIdentifier(w.client.Database()); err != nil {
		return "", err
	}
	if err := warehouse.ValidateIdentifier(table); err != nil {
		return "", err
	}
	return fmt.Sprintf("`%s`.`%s`", w.client.Database(), table), nil
}

func createTableQuery(ref string) string {
	columns := make([]string, 0, len(domain.Schema))
	for _, col := range domain.Schema {
		columns = append(columns, fmt.Sprintf("\t%s %s", col.Name, columnTypes[col.Type]))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n%s\n) ENGINE = MergeTree\nORDER BY tuple()",
		ref, strings.Join(columns, ",\n"))
}

func countQuery(ref string) string {
	return fmt.Sprintf(`
	SELECT count()
	FROM %s
	WHERE %s = ?
	  AND %s = ?
	  AND %s = ?
	  AND %s = ?
	`, ref, domain.ColEventName, domain.ColEventDate, domain.ColEventCount, domain.ColChannel)
}

func insertQuery(ref string) string {
	names := make([]string, 0, len(domain.Schema))
	for _, col := range domain.Schema {
		names = append(names, col.Name)
	}
	return fmt.Sprintf("INSERT INTO %s (%s)", ref, strings.Join(names, ", "))
}
