package report

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/googleapi"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/domain"
)

// FetcherConfig configures the report fetcher
type FetcherConfig struct {
	PropertyID      string
	PageSize        int64
	MaxRetries      uint64
	InitialInterval time.Duration
}

// Fetcher pages through a report until the API returns a short page
type Fetcher struct {
	runner Runner
	config FetcherConfig
	log    *zap.Logger
}

// NewFetcher creates a new report fetcher
func NewFetcher(runner Runner, config FetcherConfig, log *zap.Logger) *Fetcher {
	return &Fetcher{
		runner: runner,
		config: config,
		log:    log,
	}
}

// Fetch returns every row of the report for shape over window
func (f *Fetcher) Fetch(ctx context.Context, shape Shape, window domain.Window) (*Table, error) {
	property := "properties/" + f.config.PropertyID
	table := &Table{
		Shape:            shape,
		DimensionHeaders: shape.Dimensions,
		MetricHeaders:    shape.Metrics,
	}

	var offset int64
	for page := 1; ; page++ {
		req := buildRequest(shape, window, f.config.PageSize, offset)

		resp, err := f.runPage(ctx, property, shape, req)
		if err != nil {
			return nil, fmt.Errorf("failed to run %s report at offset %d: %w", shape.Name, offset, err)
		}

		if len(resp.DimensionHeaders) > 0 || len(resp.MetricHeaders) > 0 {
			table.DimensionHeaders = dimensionNames(resp.DimensionHeaders)
			table.MetricHeaders = metricNames(resp.MetricHeaders)
		}

		for _, row := range resp.Rows {
			table.Rows = append(table.Rows, convertRow(row))
		}

		f.log.Debug("Fetched report page",
			zap.String("report", shape.Name),
			zap.Int("page", page),
			zap.Int64("offset", offset),
			zap.Int("rows", len(resp.Rows)))

		offset += int64(len(resp.Rows))
		if lastPage(resp, offset, f.config.PageSize) {
			break
		}
	}

	f.log.Info("Fetched report",
		zap.String("report", shape.Name),
		zap.String("start_date", window.Start),
		zap.String("end_date", window.End),
		zap.Int("rows", len(table.Rows)))

	return table, nil
}

func (f *Fetcher) runPage(ctx context.Context, property string, shape Shape, req *analyticsdata.RunReportRequest) (*analyticsdata.RunReportResponse, error) {
	var resp *analyticsdata.RunReportResponse

	operation := func() error {
		r, err := f.runner.RunReport(ctx, property, req)
		if err != nil {
			if !isRetryable(err) {
				return backoff.Permanent(err)
			}
			f.log.Warn("Report call failed, retrying",
				zap.String("report", shape.Name),
				zap.Int64("offset", req.Offset),
				zap.Error(err))
			return err
		}
		resp = r
		return nil
	}

	if err := backoff.Retry(operation, f.newBackOff(ctx)); err != nil {
		return nil, err
	}
	return resp, nil
}

func (f *Fetcher) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if f.config.InitialInterval > 0 {
		b.InitialInterval = f.config.InitialInterval
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, f.config.MaxRetries), ctx)
}

// lastPage reports whether offset rows exhaust the report. The reported row
// count decides when present, otherwise a short page ends the report.
func lastPage(resp *analyticsdata.RunReportResponse, offset, pageSize int64) bool {
	if len(resp.Rows) == 0 {
		return true
	}
	if resp.RowCount > 0 {
		return offset >= resp.RowCount
	}
	return int64(len(resp.Rows)) < pageSize
}

// isRetryable treats quota, server and transport failures as transient
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}

	return true
}

func buildRequest(shape Shape, window domain.Window, limit, offset int64) *analyticsdata.RunReportRequest {
	req := &analyticsdata.RunReportRequest{
		DateRanges: []*analyticsdata.DateRange{
			{StartDate: window.Start, EndDate: window.End},
		},
		Limit:  limit,
		Offset: offset,
	}

	for _, d := range shape.Dimensions {
		req.Dimensions = append(req.Dimensions, &analyticsdata.Dimension{Name: d})
	}
	for _, m := range shape.Metrics {
		req.Metrics = append(req.Metrics, &analyticsdata.Metric{Name: m})
	}

	if shape.OrderBy != "" {
		req.OrderBys = []*analyticsdata.OrderBy{
			{Dimension: &analyticsdata.DimensionOrderBy{DimensionName: shape.OrderBy}},
		}
	}

	return req
}

func convertRow(row *analyticsdata.Row) Row {
	out := Row{
		Dimensions: make([]string, len(row.DimensionValues)),
		Metrics:    make([]string, len(row.MetricValues)),
	}
	for i, v := range row.DimensionValues {
		out.Dimensions[i] = v.Value
	}
	for i, v := range row.MetricValues {
		out.Metrics[i] = v.Value
	}
	return out
}

func dimensionNames(headers []*analyticsdata.DimensionHeader) []string {
	names := make([]string, len(headers))
	for i, h := range headers {
		names[i] = h.Name
	}
	return names
}

func metricNames(headers []*analyticsdata.MetricHeader) []string {
	names := make([]string, len(headers))
	for i, h := range headers {
		names[i] = h.Name
	}
	return names
}
