package loader

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/domain"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/warehouse"
)

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

const prefix = "ga_events_"

func purchase(date string, count int64) domain.Record {
	return domain.Record{
		EventName:    "purchase",
		EventDate:    date,
		EventCount:   count,
		IsConversion: domain.Bool(true),
		Channel:      "Organic Search",
		EventType:    domain.EventTypeConversion,
	}
}

func TestLoader_ShouldSkip_BackfillNeverQueries(t *testing.T) {
	wh := new(MockWarehouse)
	l := New(wh, prefix, domain.ModeBackfill, zap.NewNop())

	skip, err := l.ShouldSkip(context.Background(), purchase("20240315", 5))

	assert.NoError(t, err)
	assert.False(t, skip)
	wh.AssertNotCalled(t, "TableExists", mock.Anything, mock.Anything)
	wh.AssertNotCalled(t, "CountMatching", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoader_ShouldSkip_MissingTableIsNotDuplicate(t *testing.T) {
	wh := new(MockWarehouse)
	l := New(wh, prefix, domain.ModeRecent, zap.NewNop())

	wh.On("TableExists", mock.Anything, "ga_events_20240301").Return(false, nil)

	skip, err := l.ShouldSkip(context.Background(), purchase("20240315", 5))

	assert.NoError(t, err)
	assert.False(t, skip)
	wh.AssertNotCalled(t, "CountMatching", mock.Anything, mock.Anything, mock.Anything)
	wh.AssertExpectations(t)
}

func TestLoader_ShouldSkip_CountDecides(t *testing.T) {
	key := domain.DedupKey{EventName: "purchase", EventDate: 20240315, EventCount: 5, Channel: "Organic Search"}

	tests := []struct {
		name     string
		count    int64
		expected bool
	}{
		{name: "no match", count: 0, expected: false},
		{name: "one match", count: 1, expected: true},
		{name: "several matches", count: 3, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wh := new(MockWarehouse)
			l := New(wh, prefix, domain.ModeRecent, zap.NewNop())

			wh.On("TableExists", mock.Anything, "ga_events_20240301").Return(true, nil)
			wh.On("CountMatching", mock.Anything, "ga_events_20240301", key).Return(tt.count, nil)

			skip, err := l.ShouldSkip(context.Background(), purchase("20240315", 5))

			assert.NoError(t, err)
			assert.Equal(t, tt.expected, skip)
			wh.AssertExpectations(t)
		})
	}
}

func TestLoader_ShouldSkip_IgnoresConversionFlag(t *testing.T) {
	wh := new(MockWarehouse)
	l := New(wh, prefix, domain.ModeRecent, zap.NewNop())

	rec := purchase("20240315", 5)
	rec.IsConversion = domain.Bool(false)
	rec.EventType = domain.EventTypeEvent

	wh.On("TableExists", mock.Anything, "ga_events_20240301").Return(true, nil)
	wh.On("CountMatching", mock.Anything, "ga_events_20240301",
		domain.DedupKey{EventName: "purchase", EventDate: 20240315, EventCount: 5, Channel: "Organic Search"}).
		Return(int64(1), nil)

	skip, err := l.ShouldSkip(context.Background(), rec)

	assert.NoError(t, err)
	assert.True(t, skip)
}

func TestLoader_ShouldSkip_QueryErrorPropagates(t *testing.T) {
	wh := new(MockWarehouse)
	l := New(wh, prefix, domain.ModeRecent, zap.NewNop())

	queryErr := errors.New("quota exceeded")
	wh.On("TableExists", mock.Anything, mock.Anything).Return(true, nil)
	wh.On("CountMatching", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), queryErr)

	_, err := l.ShouldSkip(context.Background(), purchase("20240315", 5))

	assert.ErrorIs(t, err, queryErr)
}

func TestLoader_ShouldSkip_InvalidDate(t *testing.T) {
	wh := new(MockWarehouse)
	l := New(wh, prefix, domain.ModeRecent, zap.NewNop())

	_, err := l.ShouldSkip(context.Background(), purchase("2024-03-15", 5))

	assert.ErrorIs(t, err, domain.ErrInvalidEventDate)
	wh.AssertNotCalled(t, "TableExists", mock.Anything, mock.Anything)
}

func TestLoader_Accumulate(t *testing.T) {
	wh := new(MockWarehouse)
	l := New(wh, prefix, domain.ModeRecent, zap.NewNop())
	batch := NewBatch()

	dup := purchase("20240315", 5)
	fresh := purchase("20240315", 7)

	wh.On("TableExists", mock.Anything, "ga_events_20240301").Return(true, nil)
	wh.On("CountMatching", mock.Anything, "ga_events_20240301", mock.MatchedBy(func(k domain.DedupKey) bool {
		return k.EventCount == 5
	})).Return(int64(1), nil)
	wh.On("CountMatching", mock.Anything, "ga_events_20240301", mock.MatchedBy(func(k domain.DedupKey) bool {
		return k.EventCount == 7
	})).Return(int64(0), nil)

	added, err := l.Accumulate(context.Background(), batch, dup)
	assert.NoError(t, err)
	assert.False(t, added)

	added, err = l.Accumulate(context.Background(), batch, fresh)
	assert.NoError(t, err)
	assert.True(t, added)

	assert.Equal(t, 1, batch.Len())
	assert.Equal(t, []domain.Record{fresh}, batch.Records(domain.PartitionKey{Year: "2024", Month: "03"}))
}

func TestLoader_Flush_CreatesMissingTable(t *testing.T) {
	wh := new(MockWarehouse)
	l := New(wh, prefix, domain.ModeRecent, zap.NewNop())
	batch := NewBatch()

	records := []domain.Record{purchase("20240315", 5), purchase("20240316", 2)}
	for _, r := range records {
		assert.NoError(t, batch.Add(r))
	}

	wh.On("TableExists", mock.Anything, "ga_events_20240301").Return(false, nil)
	wh.On("CreateTable", mock.Anything, "ga_events_20240301").Return(nil)
	wh.On("InsertRows", mock.Anything, "ga_events_20240301", records).Return(2, nil)

	report := l.Flush(context.Background(), batch)

	assert.Len(t, report.Results, 1)
	assert.True(t, report.Results[0].Created)
	assert.Equal(t, 2, report.Results[0].Inserted)
	assert.Empty(t, report.Failed())
	assert.Equal(t, 2, report.Inserted())
	wh.AssertExpectations(t)
}

func TestLoader_Flush_ExistingTableNotRecreated(t *testing.T) {
	wh := new(MockWarehouse)
	l := New(wh, prefix, domain.ModeRecent, zap.NewNop())
	batch := NewBatch()
	assert.NoError(t, batch.Add(purchase("20240315", 5)))

	wh.On("TableExists", mock.Anything, "ga_events_20240301").Return(true, nil)
	wh.On("InsertRows", mock.Anything, "ga_events_20240301", mock.Anything).Return(1, nil)

	report := l.Flush(context.Background(), batch)

	assert.False(t, report.Results[0].Created)
	wh.AssertNotCalled(t, "CreateTable", mock.Anything, mock.Anything)
}

func TestLoader_Flush_PartitionsAreIndependent(t *testing.T) {
	wh := new(MockWarehouse)
	l := New(wh, prefix, domain.ModeBackfill, zap.NewNop())
	batch := NewBatch()

	for _, date := range []string{"20240115", "20240210", "20240301"} {
		assert.NoError(t, batch.Add(purchase(date, 1)))
	}

	insertErr := errors.New("insert failed")
	wh.On("TableExists", mock.Anything, mock.Anything).Return(true, nil)
	wh.On("InsertRows", mock.Anything, "ga_events_20240101", mock.Anything).Return(1, nil)
	wh.On("InsertRows", mock.Anything, "ga_events_20240201", mock.Anything).Return(0, insertErr)
	wh.On("InsertRows", mock.Anything, "ga_events_20240301", mock.Anything).Return(1, nil)

	report := l.Flush(context.Background(), batch)

	assert.Len(t, report.Results, 3)
	assert.Equal(t, "ga_events_20240101", report.Results[0].Table)
	assert.Equal(t, "ga_events_20240201", report.Results[1].Table)
	assert.Equal(t, "ga_events_20240301", report.Results[2].Table)

	failed := report.Failed()
	assert.Len(t, failed, 1)
	assert.Equal(t, "2024-02", failed[0].Partition.String())
	assert.ErrorIs(t, failed[0].Err, insertErr)
	assert.Equal(t, 2, report.Inserted())
	wh.AssertExpectations(t)
}

func TestLoader_Flush_CreateFailureSkipsInsert(t *testing.T) {
	wh := new(MockWarehouse)
	l := New(wh, prefix, domain.ModeRecent, zap.NewNop())
	batch := NewBatch()
	assert.NoError(t, batch.Add(purchase("20240315", 5)))

	wh.On("TableExists", mock.Anything, mock.Anything).Return(false, nil)
	wh.On("CreateTable", mock.Anything, mock.Anything).Return(errors.New("permission denied"))

	report := l.Flush(context.Background(), batch)

	assert.Len(t, report.Failed(), 1)
	wh.AssertNotCalled(t, "InsertRows", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoader_Flush_ConcurrentCreateStillInserts(t *testing.T) {
	wh := new(MockWarehouse)
	l := New(wh, prefix, domain.ModeRecent, zap.NewNop())
	batch := NewBatch()
	assert.NoError(t, batch.Add(purchase("20240315", 5)))

	wh.On("TableExists", mock.Anything, "ga_events_20240301").Return(false, nil)
	wh.On("CreateTable", mock.Anything, "ga_events_20240301").
		Return(fmt.Errorf("failed to create table ga_events_20240301: %w", warehouse.ErrTableExists))
	wh.On("InsertRows", mock.Anything, "ga_events_20240301", mock.Anything).Return(1, nil)

	report := l.Flush(context.Background(), batch)

	assert.Len(t, report.Results, 1)
	assert.False(t, report.Results[0].Created)
	assert.NoError(t, report.Results[0].Err)
	assert.Equal(t, 1, report.Inserted())
	wh.AssertExpectations(t)
}

func TestLoader_Flush_PartialInsertFails(t *testing.T) {
	wh := new(MockWarehouse)
	l := New(wh, prefix, domain.ModeRecent, zap.NewNop())
	batch := NewBatch()
	assert.NoError(t, batch.Add(purchase("20240315", 5)))
	assert.NoError(t, batch.Add(purchase("20240316", 6)))

	wh.On("TableExists", mock.Anything, mock.Anything).Return(true, nil)
	wh.On("InsertRows", mock.Anything, mock.Anything, mock.Anything).Return(1, nil)

	report := l.Flush(context.Background(), batch)

	assert.Len(t, report.Failed(), 1)
	assert.Equal(t, 1, report.Results[0].Inserted)
}

func TestLoader_Flush_EmptyBatch(t *testing.T) {
	wh := new(MockWarehouse)
	l := New(wh, prefix, domain.ModeRecent, zap.NewNop())

	report := l.Flush(context.Background(), NewBatch())

	assert.Empty(t, report.Results)
	wh.AssertNotCalled(t, "TableExists", mock.Anything, mock.Anything)
}
