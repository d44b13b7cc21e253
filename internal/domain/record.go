package domain

import "strconv"

// EventType tags a record by the shape of the row it came from
type EventType string

const (
	EventTypeTraffic    EventType = "Traffic"
	EventTypeConversion EventType = "Conversion"
	EventTypeEvent      EventType = "Event"
)

const (
	// TrafficEventName is the synthetic event name given to traffic rows
	TrafficEventName = "ct_active_users"

	// NotSetSentinel is what the reporting API sends for an unset dimension
	NotSetSentinel = "(not set)"
)

// Record is the canonical shape every fetched row is normalized into
type Record struct {
	EventName    string
	EventDate    string
	EventCount   int64
	IsConversion *bool
	Channel      string
	EventType    EventType
}

// DedupKey is the tuple used to decide whether a record is already loaded.
// IsConversion and EventType are not part of it.
type DedupKey struct {
	EventName  string
	EventDate  int64
	EventCount int64
	Channel    string
}

// Partition returns the monthly partition the record belongs to
func (r Record) Partition() (PartitionKey, error) {
	return PartitionOf(r.EventDate)
}

// EventDateInt returns the event date as the integer stored in the warehouse
func (r Record) EventDateInt() (int64, error) {
	if _, err := PartitionOf(r.EventDate); err != nil {
		return 0, err
	}
	return strconv.ParseInt(r.EventDate, 10, 64)
}

// DedupKey builds the dedup tuple for the record
func (r Record) DedupKey() (DedupKey, error) {
	date, err := r.EventDateInt()
	if err != nil {
		return DedupKey{}, err
	}
	return DedupKey{
		EventName:  r.EventName,
		EventDate:  date,
		EventCount: r.EventCount,
		Channel:    r.Channel,
	}, nil
}

// Bool returns a pointer to b, for IsConversion
func Bool(b bool) *bool {
	return &b
}
