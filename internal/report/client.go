package report

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/option"
)

// APIRunner runs reports through the Analytics Data API
type APIRunner struct {
	service *analyticsdata.Service
}

// NewAPIRunner creates a Data API client authorized by ts
func NewAPIRunner(ctx context.Context, ts oauth2.TokenSource) (*APIRunner, error) {
	service, err := analyticsdata.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create analytics data client: %w", err)
	}
	return &APIRunner{service: service}, nil
}

// RunReport implements Runner
func (r *APIRunner) RunReport(ctx context.Context, property string, req *analyticsdata.RunReportRequest) (*analyticsdata.RunReportResponse, error) {
	return r.service.Properties.RunReport(property, req).Context(ctx).Do()
}
