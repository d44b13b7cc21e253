package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionOf_Boundaries(t *testing.T) {
	tests := []struct {
		date  string
		year  string
		month string
	}{
		{"20231231", "2023", "12"},
		{"20240101", "2024", "01"},
		{"20240229", "2024", "02"},
		{"20240315", "2024", "03"},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			key, err := PartitionOf(tt.date)
			require.NoError(t, err)
			assert.Equal(t, PartitionKey{Year: tt.year, Month: tt.month}, key)
			assert.Equal(t, PartitionKey{Year: tt.date[0:4], Month: tt.date[4:6]}, key)
		})
	}
}

func TestPartitionOf_Invalid(t *testing.T) {
	for _, date := range []string{"", "2024031", "2024-03-15", "20241315", "20240015", "abcdefgh"} {
		_, err := PartitionOf(date)
		assert.ErrorIs(t, err, ErrInvalidEventDate, date)
	}
}

func TestTableName(t *testing.T) {
	assert.Equal(t, "ga_events_20240301", TableName("ga_events_", PartitionKey{Year: "2024", Month: "03"}))
	assert.Equal(t, "ga_events_20231201", TableName("ga_events_", PartitionKey{Year: "2023", Month: "12"}))
}

func TestRecord_DedupKey(t *testing.T) {
	record := Record{
		EventName:    "purchase",
		EventDate:    "20240315",
		EventCount:   5,
		IsConversion: Bool(true),
		Channel:      "Organic Search",
		EventType:    EventTypeConversion,
	}

	key, err := record.DedupKey()

	require.NoError(t, err)
	assert.Equal(t, DedupKey{EventName: "purchase", EventDate: 20240315, EventCount: 5, Channel: "Organic Search"}, key)

	other := record
	other.IsConversion = Bool(false)
	other.EventType = EventTypeEvent
	otherKey, err := other.DedupKey()
	require.NoError(t, err)
	assert.Equal(t, key, otherKey)
}

func TestRecord_DedupKey_InvalidDate(t *testing.T) {
	_, err := Record{EventDate: "2024-03"}.DedupKey()
	assert.ErrorIs(t, err, ErrInvalidEventDate)
}
