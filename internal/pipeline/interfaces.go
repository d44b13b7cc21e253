package pipeline

import (
	"context"
	"time"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/domain"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/report"
)

// ReportFetcher returns the full report for one shape over a window
type ReportFetcher interface {
	Fetch(ctx context.Context, shape report.Shape, window domain.Window) (*report.Table, error)
}

// Archiver copies the finished export file to remote storage
type Archiver interface {
	// Archive uploads the file at path and returns its remote location
	Archive(ctx context.Context, path string, runDate time.Time, runID string) (string, error)
}

// Notifier announces the outcome of a run
type Notifier interface {
	Notify(ctx context.Context, summary *Summary) error
}
