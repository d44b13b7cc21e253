package normalize

import (
	"sort"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/domain"
)

// FromTraffic maps a traffic row to a canonical record
func FromTraffic(row TrafficRow) domain.Record {
	return domain.Record{
		EventName:    domain.TrafficEventName,
		EventDate:    row.Date,
		EventCount:   row.Count,
		IsConversion: nil,
		Channel:      row.Channel,
		EventType:    domain.EventTypeTraffic,
	}
}

// FromEvent maps an event row to a canonical record. The conversion flag is
// the truthiness of the dimension value after "(not set)" is blanked.
func FromEvent(row EventRow) domain.Record {
	flag := row.IsConversion
	if flag == domain.NotSetSentinel {
		flag = ""
	}
	isConversion := flag != ""

	eventType := domain.EventTypeEvent
	if isConversion {
		eventType = domain.EventTypeConversion
	}

	return domain.Record{
		EventName:    row.EventName,
		EventDate:    row.Date,
		EventCount:   row.Count,
		IsConversion: domain.Bool(isConversion),
		Channel:      row.Channel,
		EventType:    eventType,
	}
}

// SortEventsByDate orders event rows by date ascending, keeping API order for ties
func SortEventsByDate(rows []EventRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Date < rows[j].Date
	})
}

// Records normalizes traffic rows, in fetch order, followed by event rows
func Records(traffic []TrafficRow, events []EventRow) []domain.Record {
	records := make([]domain.Record, 0, len(traffic)+len(events))
	for _, row := range traffic {
		records = append(records, FromTraffic(row))
	}
	for _, row := range events {
		records = append(records, FromEvent(row))
	}
	return records
}
