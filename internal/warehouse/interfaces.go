package warehouse

import (
	"context"
	"errors"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/domain"
)

// ErrTableExists is returned by CreateTable when another writer created the
// table first
var ErrTableExists = errors.New("table already exists")

// Warehouse is the destination of the monthly partition tables
type Warehouse interface {
	// TableExists reports whether the partition table exists
	TableExists(ctx context.Context, table string) (bool, error)

	// CreateTable creates the partition table with domain.Schema. It may
	// return ErrTableExists when the table appeared after TableExists.
	CreateTable(ctx context.Context, table string) error

	// CountMatching counts rows equal to key on all four dedup columns. Read only.
	CountMatching(ctx context.Context, table string, key domain.DedupKey) (int64, error)

	// InsertRows inserts records in one batch, matching fields to columns by name
	InsertRows(ctx context.Context, table string, records []domain.Record) (int, error)

	// Close releases the connection
	Close() error
}
