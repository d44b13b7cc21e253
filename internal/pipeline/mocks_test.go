package pipeline

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/domain"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/report"
)

// MockFetcher is a mock implementation of ReportFetcher
type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, shape report.Shape, window domain.Window) (*report.Table, error) {
	args := m.Called(ctx, shape, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Table), args.Error(1)
}

// MockWarehouse is a mock implementation of warehouse.Warehouse
type MockWarehouse struct {
	mock.Mock
}

func (m *MockWarehouse) TableExists(ctx context.Context, table string) (bool, error) {
	args := m.Called(ctx, table)
	return args.Bool(0), args.Error(1)
}

func (m *MockWarehouse) CreateTable(ctx context.Context, table string) error {
	args := m.Called(ctx, table)
	return args.Error(0)
}

func (m *MockWarehouse) CountMatching(ctx context.Context, table string, key domain.DedupKey) (int64, error) {
	args := m.Called(ctx, table, key)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWarehouse) InsertRows(ctx context.Context, table string, records []domain.Record) (int, error) {
	args := m.Called(ctx, table, records)
	return args.Int(0), args.Error(1)
}

func (m *MockWarehouse) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockArchiver is a mock implementation of Archiver
type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Archive(ctx context.Context, path string, runDate time.Time, runID string) (string, error) {
	args := m.Called(ctx, path, runDate, runID)
	return args.String(0), args.Error(1)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, summary *Summary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}
