package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	analyticsdata "google.golang.org/api/analyticsdata/v1beta"
	"google.golang.org/api/googleapi"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/domain"
)

// MockRunner is a mock implementation of Runner
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) RunReport(ctx context.Context, property string, req *analyticsdata.RunReportRequest) (*analyticsdata.RunReportResponse, error) {
	args := m.Called(ctx, property, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*analyticsdata.RunReportResponse), args.Error(1)
}

var testWindow = domain.Window{Start: "2024-03-15", End: "2024-03-15"}

func trafficResponse(dates ...string) *analyticsdata.RunReportResponse {
	resp := &analyticsdata.RunReportResponse{
		DimensionHeaders: []*analyticsdata.DimensionHeader{{Name: DimensionDate}, {Name: DimensionChannel}},
		MetricHeaders:    []*analyticsdata.MetricHeader{{Name: MetricActiveUsers}},
	}
	for _, d := range dates {
		resp.Rows = append(resp.Rows, &analyticsdata.Row{
			DimensionValues: []*analyticsdata.DimensionValue{{Value: d}, {Value: "Direct"}},
			MetricValues:    []*analyticsdata.MetricValue{{Value: "10"}},
		})
	}
	return resp
}

func atOffset(offset int64) interface{} {
	return mock.MatchedBy(func(req *analyticsdata.RunReportRequest) bool {
		return req.Offset == offset
	})
}

func newTestFetcher(runner Runner, pageSize int64) *Fetcher {
	return NewFetcher(runner, FetcherConfig{
		PropertyID:      "123",
		PageSize:        pageSize,
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
	}, zap.NewNop())
}

func TestFetcher_Fetch_PagesUntilShortPage(t *testing.T) {
	runner := new(MockRunner)
	runner.On("RunReport", mock.Anything, "properties/123", atOffset(0)).
		Return(trafficResponse("20240301", "20240302"), nil).Once()
	runner.On("RunReport", mock.Anything, "properties/123", atOffset(2)).
		Return(trafficResponse("20240303"), nil).Once()

	table, err := newTestFetcher(runner, 2).Fetch(context.Background(), TrafficShape, testWindow)

	require.NoError(t, err)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []string{"20240301", "Direct"}, table.Rows[0].Dimensions)
	assert.Equal(t, "20240303", table.Rows[2].Dimensions[0])
	assert.Equal(t, []string{DimensionDate, DimensionChannel}, table.DimensionHeaders)
	runner.AssertNumberOfCalls(t, "RunReport", 2)
}

func TestFetcher_Fetch_FullLastPageRequestsOneMore(t *testing.T) {
	runner := new(MockRunner)
	runner.On("RunReport", mock.Anything, mock.Anything, atOffset(0)).
		Return(trafficResponse("20240301", "20240302"), nil).Once()
	runner.On("RunReport", mock.Anything, mock.Anything, atOffset(2)).
		Return(&analyticsdata.RunReportResponse{}, nil).Once()

	table, err := newTestFetcher(runner, 2).Fetch(context.Background(), TrafficShape, testWindow)

	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
	assert.Equal(t, []string{DimensionDate, DimensionChannel}, table.DimensionHeaders)
	runner.AssertExpectations(t)
}

func withRowCount(resp *analyticsdata.RunReportResponse, total int64) *analyticsdata.RunReportResponse {
	resp.RowCount = total
	return resp
}

func TestFetcher_Fetch_FollowsRowCountPastCappedPage(t *testing.T) {
	runner := new(MockRunner)
	runner.On("RunReport", mock.Anything, mock.Anything, atOffset(0)).
		Return(withRowCount(trafficResponse("20240301", "20240302", "20240303"), 4), nil).Once()
	runner.On("RunReport", mock.Anything, mock.Anything, atOffset(3)).
		Return(withRowCount(trafficResponse("20240304"), 4), nil).Once()

	table, err := newTestFetcher(runner, 5).Fetch(context.Background(), TrafficShape, testWindow)

	require.NoError(t, err)
	require.Len(t, table.Rows, 4)
	assert.Equal(t, "20240304", table.Rows[3].Dimensions[0])
	runner.AssertExpectations(t)
}

func TestFetcher_Fetch_StopsWhenRowCountReached(t *testing.T) {
	runner := new(MockRunner)
	runner.On("RunReport", mock.Anything, mock.Anything, atOffset(0)).
		Return(withRowCount(trafficResponse("20240301", "20240302"), 2), nil).Once()

	table, err := newTestFetcher(runner, 2).Fetch(context.Background(), TrafficShape, testWindow)

	require.NoError(t, err)
	assert.Len(t, table.Rows, 2)
	runner.AssertNumberOfCalls(t, "RunReport", 1)
}

func TestFetcher_Fetch_RequestShape(t *testing.T) {
	runner := new(MockRunner)
	runner.On("RunReport", mock.Anything, "properties/123", mock.MatchedBy(func(req *analyticsdata.RunReportRequest) bool {
		return len(req.Dimensions) == 4 &&
			req.Dimensions[0].Name == DimensionEventName &&
			req.Metrics[0].Name == MetricEventCount &&
			req.DateRanges[0].StartDate == "2024-03-15" &&
			req.DateRanges[0].EndDate == "2024-03-15" &&
			req.Limit == 100 &&
			len(req.OrderBys) == 0
	})).Return(&analyticsdata.RunReportResponse{}, nil).Once()

	table, err := newTestFetcher(runner, 100).Fetch(context.Background(), EventShape, testWindow)

	require.NoError(t, err)
	assert.Empty(t, table.Rows)
	assert.Equal(t, EventShape.Dimensions, table.DimensionHeaders)
	runner.AssertExpectations(t)
}

func TestFetcher_Fetch_RetriesTransientErrors(t *testing.T) {
	runner := new(MockRunner)
	runner.On("RunReport", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &googleapi.Error{Code: 503}).Once()
	runner.On("RunReport", mock.Anything, mock.Anything, mock.Anything).
		Return(trafficResponse("20240315"), nil).Once()

	table, err := newTestFetcher(runner, 10).Fetch(context.Background(), TrafficShape, testWindow)

	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)
	runner.AssertNumberOfCalls(t, "RunReport", 2)
}

func TestFetcher_Fetch_GivesUpAfterMaxRetries(t *testing.T) {
	runner := new(MockRunner)
	runner.On("RunReport", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &googleapi.Error{Code: 429})

	_, err := newTestFetcher(runner, 10).Fetch(context.Background(), TrafficShape, testWindow)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to run traffic report")
	runner.AssertNumberOfCalls(t, "RunReport", 3)
}

func TestFetcher_Fetch_PermanentErrorNotRetried(t *testing.T) {
	runner := new(MockRunner)
	runner.On("RunReport", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &googleapi.Error{Code: 403, Message: "permission denied"})

	_, err := newTestFetcher(runner, 10).Fetch(context.Background(), TrafficShape, testWindow)

	var apiErr *googleapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 403, apiErr.Code)
	runner.AssertNumberOfCalls(t, "RunReport", 1)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRetryable(errors.New("connection reset")))
	assert.True(t, isRetryable(&googleapi.Error{Code: 500}))
	assert.True(t, isRetryable(&googleapi.Error{Code: 429}))
	assert.False(t, isRetryable(&googleapi.Error{Code: 400}))
	assert.False(t, isRetryable(context.Canceled))
}
