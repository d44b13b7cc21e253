package pipeline

import (
	"fmt"
	"time"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/config"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/domain"
)

// WindowFor returns the fetch window for mode. Recent covers the calendar
// day before now; backfill covers initialFrom through now.
func WindowFor(mode domain.Mode, now time.Time, initialFrom string) (domain.Window, error) {
	today := now.Format(config.DateLayout)

	switch mode {
	case domain.ModeRecent:
		yesterday := now.AddDate(0, 0, -1).Format(config.DateLayout)
		return domain.Window{Start: yesterday, End: yesterday}, nil

	case domain.ModeBackfill:
		from, err := time.Parse(config.DateLayout, initialFrom)
		if err != nil {
			return domain.Window{}, fmt.Errorf("invalid initial fetch date %q: %w", initialFrom, err)
		}
		if from.Format(config.DateLayout) > today {
			return domain.Window{}, fmt.Errorf("initial fetch date %s is after today %s", initialFrom, today)
		}
		return domain.Window{Start: initialFrom, End: today}, nil

	default:
		return domain.Window{}, fmt.Errorf("unknown mode %q", mode)
	}
}
