package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidEventDate is returned for event dates that are not YYYYMMDD
var ErrInvalidEventDate = errors.New("invalid event date")

// PartitionKey identifies one calendar month in the warehouse
type PartitionKey struct {
	Year  string
	Month string
}

// String formats the key as YYYY-MM
func (k PartitionKey) String() string {
	return k.Year + "-" + k.Month
}

// PartitionOf derives the partition key from a YYYYMMDD event date
func PartitionOf(eventDate string) (PartitionKey, error) {
	if len(eventDate) != 8 {
		return PartitionKey{}, fmt.Errorf("%w: %q", ErrInvalidEventDate, eventDate)
	}
	for i := 0; i < len(eventDate); i++ {
		if eventDate[i] < '0' || eventDate[i] > '9' {
			return PartitionKey{}, fmt.Errorf("%w: %q", ErrInvalidEventDate, eventDate)
		}
	}

	month := eventDate[4:6]
	if month < "01" || month > "12" {
		return PartitionKey{}, fmt.Errorf("%w: month out of range in %q", ErrInvalidEventDate, eventDate)
	}

	return PartitionKey{Year: eventDate[:4], Month: month}, nil
}

// TableName returns the monthly table name <prefix><YYYY><MM>01
func TableName(prefix string, key PartitionKey) string {
	return prefix + key.Year + key.Month + "01"
}
