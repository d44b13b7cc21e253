package warehouse

import (
	"fmt"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/domain"
)

// Row is a record in column form, shared by the SQL backends
type Row struct {
	EventName    string `db:"Event_Name"`
	EventDate    int64  `db:"Event_Date"`
	EventCount   int64  `db:"Event_Count"`
	IsConversion *bool  `db:"Is_Conversion"`
	Channel      string `db:"Channel"`
	EventType    string `db:"Event_Type"`
}

// ToRows converts records to column form
func ToRows(records []domain.Record) ([]Row, error) {
	rows := make([]Row, 0, len(records))
	for i, r := range records {
		date, err := r.EventDateInt()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		rows = append(rows, Row{
			EventName:    r.EventName,
			EventDate:    date,
			EventCount:   r.EventCount,
			IsConversion: r.IsConversion,
			Channel:      r.Channel,
			EventType:    string(r.EventType),
		})
	}
	return rows, nil
}
