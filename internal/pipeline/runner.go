package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/domain"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/export"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/loader"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/normalize"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/report"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/ui"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/warehouse"
)

// ErrPartitionsFailed is returned when at least one partition was not loaded
var ErrPartitionsFailed = errors.New("one or more partitions failed to load")

// Summary describes a finished run
type Summary struct {
	RunID           string
	Mode            domain.Mode
	Window          domain.Window
	Fetched         int
	Exported        int
	Skipped         int
	Partitions      []loader.PartitionResult
	ArchiveLocation string
}

// Failed returns the number of partitions that were not loaded
func (s *Summary) Failed() int {
	n := 0
	for _, p := range s.Partitions {
		if p.Err != nil {
			n++
		}
	}
	return n
}

// Options holds the optional collaborators of a Runner
type Options struct {
	Archiver Archiver
	Notifier Notifier
	Now      func() time.Time
}

// Runner executes one fetch, export and load run
type Runner struct {
	fetcher   ReportFetcher
	exporter  export.Writer
	warehouse warehouse.Warehouse
	prefix    string
	archiver  Archiver
	notifier  Notifier
	now       func() time.Time
	narrator  *ui.Narrator
	log       *zap.Logger
}

// NewRunner creates a runner loading into tables named prefix+YYYYMM01
func NewRunner(fetcher ReportFetcher, exporter export.Writer, wh warehouse.Warehouse, prefix string, opts Options, narrator *ui.Narrator, log *zap.Logger) *Runner {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Runner{
		fetcher:   fetcher,
		exporter:  exporter,
		warehouse: wh,
		prefix:    prefix,
		archiver:  opts.Archiver,
		notifier:  opts.Notifier,
		now:       now,
		narrator:  narrator,
		log:       log,
	}
}

// Run fetches both reports over window, exports every record, then loads
// them into their monthly partitions. Fetch, export, archive and dedup query
// errors abort the run. Partition failures do not; they are collected and
// reported as ErrPartitionsFailed once every partition has been attempted.
func (r *Runner) Run(ctx context.Context, mode domain.Mode, window domain.Window) (*Summary, error) {
	summary := &Summary{
		RunID:  uuid.New().String(),
		Mode:   mode,
		Window: window,
	}
	log := r.log.With(zap.String("run_id", summary.RunID), zap.String("mode", string(mode)))

	log.Info("Run started",
		zap.String("start", window.Start),
		zap.String("end", window.End))

	records, err := r.fetch(ctx, window, log)
	if err != nil {
		return nil, err
	}
	summary.Fetched = len(records)

	if err := r.exporter.Write(records); err != nil {
		return nil, fmt.Errorf("failed to write export: %w", err)
	}
	summary.Exported = len(records)
	r.narrator.Success("Data exported to %s", r.exporter.Path())

	if r.archiver != nil {
		location, err := r.archiver.Archive(ctx, r.exporter.Path(), r.now(), summary.RunID)
		if err != nil {
			return nil, fmt.Errorf("failed to archive export: %w", err)
		}
		summary.ArchiveLocation = location
		r.narrator.Success("Export archived to %s", location)
	}

	l := loader.New(r.warehouse, r.prefix, mode, log)
	if mode == domain.ModeRecent {
		r.narrator.Info("Checking %d records against the warehouse", len(records))
	}

	batch := loader.NewBatch()
	for _, rec := range records {
		added, err := l.Accumulate(ctx, batch, rec)
		if err != nil {
			return nil, fmt.Errorf("failed to check record %s on %s: %w", rec.EventName, rec.EventDate, err)
		}
		if !added {
			summary.Skipped++
		}
	}

	if summary.Skipped > 0 {
		r.narrator.Info("Skipped %d records already in the warehouse", summary.Skipped)
	}

	flushed := l.Flush(ctx, batch)
	summary.Partitions = flushed.Results
	r.narratePartitions(flushed)

	log.Info("Run finished",
		zap.Int("fetched", summary.Fetched),
		zap.Int("skipped", summary.Skipped),
		zap.Int("inserted", flushed.Inserted()),
		zap.Int("failed_partitions", summary.Failed()))

	r.notify(ctx, summary, log)

	if failed := summary.Failed(); failed > 0 {
		return summary, fmt.Errorf("%w: %d of %d", ErrPartitionsFailed, failed, len(summary.Partitions))
	}

	return summary, nil
}

func (r *Runner) fetch(ctx context.Context, window domain.Window, log *zap.Logger) ([]domain.Record, error) {
	r.narrator.Info("Fetching data from %s to %s", window.Start, window.End)

	trafficTable, err := r.fetcher.Fetch(ctx, report.TrafficShape, window)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch traffic report: %w", err)
	}
	traffic, err := normalize.ParseTraffic(trafficTable)
	if err != nil {
		return nil, fmt.Errorf("failed to parse traffic report: %w", err)
	}

	eventTable, err := r.fetcher.Fetch(ctx, report.EventShape, window)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event report: %w", err)
	}
	events, err := normalize.ParseEvents(eventTable)
	if err != nil {
		return nil, fmt.Errorf("failed to parse event report: %w", err)
	}
	normalize.SortEventsByDate(events)

	log.Info("Reports fetched",
		zap.Int("traffic_rows", len(traffic)),
		zap.Int("event_rows", len(events)))
	r.narrator.Success("Fetched %d traffic rows and %d event rows", len(traffic), len(events))

	return normalize.Records(traffic, events), nil
}

func (r *Runner) narratePartitions(flushed *loader.FlushReport) {
	if len(flushed.Results) == 0 {
		r.narrator.Info("No new records to load")
		return
	}

	for _, res := range flushed.Results {
		label := res.Partition.Month + "/" + res.Partition.Year
		if res.Created {
			r.narrator.Success("Table %s created", res.Table)
		}
		if res.Err != nil {
			r.narrator.Error("Failed to save data for %s: %v", label, res.Err)
			continue
		}
		r.narrator.Success("Data saved for %s (%d rows)", label, res.Inserted)
	}
}

// notify publishes the run summary. The load has already happened, so a
// failure here only warns.
func (r *Runner) notify(ctx context.Context, summary *Summary, log *zap.Logger) {
	if r.notifier == nil {
		return
	}

	if err := r.notifier.Notify(ctx, summary); err != nil {
		log.Warn("Failed to publish run summary", zap.Error(err))
		r.narrator.Warning("Run summary not published: %v", err)
	}
}
