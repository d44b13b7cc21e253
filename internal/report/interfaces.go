package report

import (
	"context"

	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
)

// Runner executes a single runReport call against a property
type Runner interface {
	RunReport(ctx context.Context, property string, req *analyticsdata.RunReportRequest) (*analyticsdata.RunReportResponse, error)
}
