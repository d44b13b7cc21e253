package domain

// Mode selects the fetch window and whether dedup is applied
type Mode string

const (
	// ModeRecent fetches the previous calendar day with dedup enabled
	ModeRecent Mode = "recent"

	// ModeBackfill fetches from the configured start date through today, without dedup
	ModeBackfill Mode = "backfill"
)

// Window is an inclusive date range in YYYY-MM-DD
type Window struct {
	Start string
	End   string
}
