package sqldb

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/domain"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/warehouse"
)

// insertChunkSize keeps bulk inserts below the Postgres bind parameter limit
const insertChunkSize = 1000

// Warehouse implements warehouse.Warehouse over database/sql. Partition
// tables live in one schema.
type Warehouse struct {
	db      *sqlx.DB
	dialect Dialect
	schema  string
	log     *zap.Logger
}

// Open connects with dialect's driver and verifies the connection
func Open(ctx context.Context, dialect Dialect, dsn, schema string, log *zap.Logger) (*Warehouse, error) {
	if err := warehouse.ValidateIdentifier(schema); err != nil {
		return nil, err
	}

	log.Info("Connecting to SQL warehouse",
		zap.String("dialect", dialect.Name),
		zap.String("schema", schema))

	db, err := sqlx.ConnectContext(ctx, dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", dialect.Name, err)
	}

	return NewWarehouse(db, dialect, schema, log), nil
}

// NewWarehouse wraps an existing connection
func NewWarehouse(db *sqlx.DB, dialect Dialect, schema string, log *zap.Logger) *Warehouse {
	return &Warehouse{db: db, dialect: dialect, schema: dialect.schemaName(schema), log: log}
}

// TableExists implements warehouse.Warehouse
func (w *Warehouse) TableExists(ctx context.Context, table string) (bool, error) {
	var count int64
	if err := w.db.GetContext(ctx, &count, w.db.Rebind(w.dialect.existsQuery()), w.schema, table); err != nil {
		return false, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	return count > 0, nil
}

// CreateTable implements warehouse.Warehouse
func (w *Warehouse) CreateTable(ctx context.Context, table string) error {
	ref, err := w.tableRef(table)
	if err != nil {
		return err
	}

	if _, err := w.db.ExecContext(ctx, w.dialect.createTableQuery(ref)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}

	w.log.Info("Partition table created",
		zap.String("dialect", w.dialect.Name),
		zap.String("table", table))
	return nil
}

// CountMatching implements warehouse.Warehouse
func (w *Warehouse) CountMatching(ctx context.Context, table string, key domain.DedupKey) (int64, error) {
	ref, err := w.tableRef(table)
	if err != nil {
		return 0, err
	}

	var count int64
	query := w.db.Rebind(w.dialect.countQuery(ref))
	if err := w.db.GetContext(ctx, &count, query, key.EventName, key.EventDate, key.EventCount, key.Channel); err != nil {
		return 0, fmt.Errorf("failed to count matching rows in %s: %w", table, err)
	}
	return count, nil
}

// InsertRows implements warehouse.Warehouse. All chunks go in one
// transaction so a partition is loaded entirely or not at all.
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

	tx, err := w.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := w.dialect.insertQuery(ref)
	for start := 0; start < len(rows); start += insertChunkSize {
		end := start + insertChunkSize
		if end > len(rows) {
			end = len(rows)
		}

		if _, err := tx.NamedExecContext(ctx, query, rows[start:end]); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				w.log.Error("Failed to roll back insert", zap.Error(rbErr))
			}
			return 0, fmt.Errorf("failed to insert rows into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit insert into %s: %w", table, err)
	}

	return len(rows), nil
}

// Close closes the database handle
func (w *Warehouse) Close() error {
	return w.db.Close()
}

func (w *Warehouse) tableRef(table string) (string, error) {
	if err := warehouse.ValidateIdentifier(table); err != nil {
		return "", err
	}
	return tableRef(w.schema, table), nil
}
