package report

// Dimension and metric names of the Data API used by the job
const (
	DimensionDate         = "date"
	DimensionEventName    = "eventName"
	DimensionIsConversion = "isConversionEvent"
	DimensionChannel      = "sessionDefaultChannelGroup"

	MetricActiveUsers = "activeUsers"
	MetricEventCount  = "eventCount"
)

// Shape is the dimension/metric request shape of one report
type Shape struct {
	Name       string
	Dimensions []string
	Metrics    []string
	OrderBy    string
}

// HasDimension reports whether the shape requests the named dimension
func (s Shape) HasDimension(name string) bool {
	for _, d := range s.Dimensions {
		if d == name {
			return true
		}
	}
	return false
}

// TrafficShape requests daily active users per channel, ordered by date
var TrafficShape = Shape{
	Name:       "traffic",
	Dimensions: []string{DimensionDate, DimensionChannel},
	Metrics:    []string{MetricActiveUsers},
	OrderBy:    DimensionDate,
}

// EventShape requests event counts per event, date, conversion flag and channel
var EventShape = Shape{
	Name:       "events",
	Dimensions: []string{DimensionEventName, DimensionDate, DimensionIsConversion, DimensionChannel},
	Metrics:    []string{MetricEventCount},
}
