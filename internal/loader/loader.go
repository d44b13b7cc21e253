package loader

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/domain"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/warehouse"
)

// PartitionResult is the outcome of flushing one partition
type PartitionResult struct {
	Partition domain.PartitionKey
	Table     string
	Created   bool
	Inserted  int
	Err       error
}

// FlushReport collects partition outcomes in flush order
type FlushReport struct {
	Results []PartitionResult
}

// Failed returns the partitions that were not loaded
func (r *FlushReport) Failed() []PartitionResult {
	var failed []PartitionResult
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res)
		}
	}
	return failed
}

// Inserted returns the number of rows inserted across partitions
func (r *FlushReport) Inserted() int {
	n := 0
	for _, res := range r.Results {
		n += res.Inserted
	}
	return n
}

// Loader routes records to monthly partition tables. In recent mode each
// record is checked against its partition before it is accepted.
type Loader struct {
	warehouse warehouse.Warehouse
	prefix    string
	mode      domain.Mode
	log       *zap.Logger
}

// New creates a loader writing tables named prefix+YYYYMM01
func New(wh warehouse.Warehouse, prefix string, mode domain.Mode, log *zap.Logger) *Loader {
	return &Loader{
		warehouse: wh,
		prefix:    prefix,
		mode:      mode,
		log:       log,
	}
}

// ShouldSkip reports whether rec already exists in its partition table.
// Backfill runs never query and always return false.
func (l *Loader) ShouldSkip(ctx context.Context, rec domain.Record) (bool, error) {
	if l.mode == domain.ModeBackfill {
		return false, nil
	}

	key, err := rec.Partition()
	if err != nil {
		return false, err
	}
	dedup, err := rec.DedupKey()
	if err != nil {
		return false, err
	}
	table := domain.TableName(l.prefix, key)

	exists, err := l.warehouse.TableExists(ctx, table)
	if err != nil {
		return false, fmt.Errorf("failed to check partition table: %w", err)
	}
	if !exists {
		return false, nil
	}

	count, err := l.warehouse.CountMatching(ctx, table, dedup)
	if err != nil {
		return false, fmt.Errorf("failed to query for duplicates: %w", err)
	}

	if count > 0 {
		l.log.Info(fmt.Sprintf("record already exists in the warehouse (%d)", count),
			zap.String("table", table),
			zap.String("event_name", rec.EventName),
			zap.String("event_date", rec.EventDate),
			zap.String("channel", rec.Channel))
		return true, nil
	}

	return false, nil
}

// Accumulate adds rec to batch unless it is a duplicate. It reports whether
// the record was added.
func (l *Loader) Accumulate(ctx context.Context, batch *Batch, rec domain.Record) (bool, error) {
	skip, err := l.ShouldSkip(ctx, rec)
	if err != nil {
		return false, err
	}
	if skip {
		return false, nil
	}

	if err := batch.Add(rec); err != nil {
		return false, err
	}
	return true, nil
}

// Flush ensures every partition table in batch exists and inserts its
// records. Partitions are independent: a failure is recorded on its result
// and the remaining partitions are still flushed.
func (l *Loader) Flush(ctx context.Context, batch *Batch) *FlushReport {
	report := &FlushReport{}

	for _, key := range batch.Partitions() {
		res := l.flushPartition(ctx, key, batch.Records(key))
		if res.Err != nil {
			l.log.Error("Failed to load partition",
				zap.String("partition", key.String()),
				zap.String("table", res.Table),
				zap.Error(res.Err))
		} else {
			l.log.Info("Partition loaded",
				zap.String("partition", key.String()),
				zap.String("table", res.Table),
				zap.Bool("created", res.Created),
				zap.Int("inserted", res.Inserted))
		}
		report.Results = append(report.Results, res)
	}

	return report
}

func (l *Loader) flushPartition(ctx context.Context, key domain.PartitionKey, records []domain.Record) PartitionResult {
	res := PartitionResult{Partition: key, Table: domain.TableName(l.prefix, key)}

	exists, err := l.warehouse.TableExists(ctx, res.Table)
	if err != nil {
		res.Err = fmt.Errorf("failed to check partition table: %w", err)
		return res
	}

	if !exists {
		err := l.warehouse.CreateTable(ctx, res.Table)
		switch {
		case errors.Is(err, warehouse.ErrTableExists):
			l.log.Debug("Partition table created concurrently", zap.String("table", res.Table))
		case err != nil:
			res.Err = fmt.Errorf("failed to create partition table: %w", err)
			return res
		default:
			res.Created = true
		}
	}

	inserted, err := l.warehouse.InsertRows(ctx, res.Table, records)
	res.Inserted = inserted
	if err != nil {
		res.Err = fmt.Errorf("failed to insert rows: %w", err)
		return res
	}

	if inserted != len(records) {
		res.Err = fmt.Errorf("partial insert: %d of %d rows", inserted, len(records))
	}

	return res
}
