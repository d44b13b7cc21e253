package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/domain"
)

func TestWindowFor(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name        string
		mode        domain.Mode
		initialFrom string
		expected    domain.Window
		expectErr   bool
	}{
		{
			name:     "recent is the previous day across a month boundary",
			mode:     domain.ModeRecent,
			expected: domain.Window{Start: "2024-02-29", End: "2024-02-29"},
		},
		{
			name:        "backfill runs through today",
			mode:        domain.ModeBackfill,
			initialFrom: "2023-01-01",
			expected:    domain.Window{Start: "2023-01-01", End: "2024-03-01"},
		},
		{
			name:        "backfill starting today",
			mode:        domain.ModeBackfill,
			initialFrom: "2024-03-01",
			expected:    domain.Window{Start: "2024-03-01", End: "2024-03-01"},
		},
		{
			name:        "backfill from the future",
			mode:        domain.ModeBackfill,
			initialFrom: "2024-03-02",
			expectErr:   true,
		},
		{
			name:        "malformed start date",
			mode:        domain.ModeBackfill,
			initialFrom: "01/01/2023",
			expectErr:   true,
		},
		{
			name:      "unknown mode",
			mode:      domain.Mode("weekly"),
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window, err := WindowFor(tt.mode, now, tt.initialFrom)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, window)
		})
	}
}

func TestWindowFor_NewYear(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 5, 0, 0, time.UTC)

	window, err := WindowFor(domain.ModeRecent, now, "")

	assert.NoError(t, err)
	assert.Equal(t, domain.Window{Start: "2023-12-31", End: "2023-12-31"}, window)
}
