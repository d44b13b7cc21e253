package normalize

import (
	"fmt"
	"strconv"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/domain"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/report"
)

// TrafficRow is a parsed row of the traffic report
type TrafficRow struct {
	Date    string
	Channel string
	Count   int64
}

// EventRow is a parsed row of the events report. IsConversion holds the raw
// dimension value.
type EventRow struct {
	EventName    string
	Date         string
	IsConversion string
	Channel      string
	Count        int64
}

// ParseTraffic reads traffic rows by header name. A channel dimension the
// shape never requested yields an empty channel; one it requested but the
// response lacks is an error.
func ParseTraffic(table *report.Table) ([]TrafficRow, error) {
	dateIdx := table.DimensionIndex(report.DimensionDate)
	if dateIdx < 0 {
		return nil, fmt.Errorf("traffic report has no %s dimension", report.DimensionDate)
	}
	countIdx, err := metricColumn(table)
	if err != nil {
		return nil, err
	}
	channelIdx := table.DimensionIndex(report.DimensionChannel)
	if channelIdx < 0 && table.Shape.HasDimension(report.DimensionChannel) {
		return nil, fmt.Errorf("traffic report has no %s dimension", report.DimensionChannel)
	}

	rows := make([]TrafficRow, 0, len(table.Rows))
	for i, raw := range table.Rows {
		date, err := cell(raw.Dimensions, dateIdx)
		if err != nil {
			return nil, fmt.Errorf("traffic row %d: %w", i, err)
		}
		if _, err := domain.PartitionOf(date); err != nil {
			return nil, fmt.Errorf("traffic row %d: %w", i, err)
		}

		count, err := parseCount(raw.Metrics, countIdx)
		if err != nil {
			return nil, fmt.Errorf("traffic row %d: %w", i, err)
		}

		var channel string
		if channelIdx >= 0 {
			if channel, err = cell(raw.Dimensions, channelIdx); err != nil {
				return nil, fmt.Errorf("traffic row %d: %w", i, err)
			}
		}

		rows = append(rows, TrafficRow{Date: date, Channel: channel, Count: count})
	}

	return rows, nil
}

// ParseEvents reads event rows by header name
func ParseEvents(table *report.Table) ([]EventRow, error) {
	idx := make(map[string]int, 4)
	for _, name := range []string{report.DimensionEventName, report.DimensionDate, report.DimensionIsConversion, report.DimensionChannel} {
		i := table.DimensionIndex(name)
		if i < 0 {
			return nil, fmt.Errorf("events report has no %s dimension", name)
		}
		idx[name] = i
	}
	countIdx, err := metricColumn(table)
	if err != nil {
		return nil, err
	}

	rows := make([]EventRow, 0, len(table.Rows))
	for i, raw := range table.Rows {
		values := make(map[string]string, len(idx))
		for name, col := range idx {
			v, err := cell(raw.Dimensions, col)
			if err != nil {
				return nil, fmt.Errorf("event row %d: %w", i, err)
			}
			values[name] = v
		}

		if _, err := domain.PartitionOf(values[report.DimensionDate]); err != nil {
			return nil, fmt.Errorf("event row %d: %w", i, err)
		}

		count, err := parseCount(raw.Metrics, countIdx)
		if err != nil {
			return nil, fmt.Errorf("event row %d: %w", i, err)
		}

		rows = append(rows, EventRow{
			EventName:    values[report.DimensionEventName],
			Date:         values[report.DimensionDate],
			IsConversion: values[report.DimensionIsConversion],
			Channel:      values[report.DimensionChannel],
			Count:        count,
		})
	}

	return rows, nil
}

// metricColumn locates the shape's metric, falling back to the first column
// for tables built without a shape
func metricColumn(table *report.Table) (int, error) {
	if len(table.Shape.Metrics) > 0 {
		name := table.Shape.Metrics[0]
		if i := table.MetricIndex(name); i >= 0 {
			return i, nil
		}
		return 0, fmt.Errorf("%s report has no %s metric", table.Shape.Name, name)
	}
	if len(table.MetricHeaders) == 0 {
		return 0, fmt.Errorf("%s report has no metrics", table.Shape.Name)
	}
	return 0, nil
}

func cell(values []string, i int) (string, error) {
	if i >= len(values) {
		return "", fmt.Errorf("missing column %d (row has %d)", i, len(values))
	}
	return values[i], nil
}

func parseCount(metrics []string, i int) (int64, error) {
	raw, err := cell(metrics, i)
	if err != nil {
		return 0, err
	}
	count, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid metric value %q: %w", raw, err)
	}
	return count, nil
}
