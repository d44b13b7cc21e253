package report

// Row is one report row, values in header order
type Row struct {
	Dimensions []string
	Metrics    []string
}

// Table is a fully paged report
type Table struct {
	Shape            Shape
	DimensionHeaders []string
	MetricHeaders    []string
	Rows             []Row
}

// DimensionIndex returns the column of the named dimension, or -1
func (t *Table) DimensionIndex(name string) int {
	return indexOf(t.DimensionHeaders, name)
}

// MetricIndex returns the column of the named metric, or -1
func (t *Table) MetricIndex(name string) int {
	return indexOf(t.MetricHeaders, name)
}

func indexOf(headers []string, name string) int {
	for i, h := range headers {
		if h == name {
			return i
		}
	}
	return -1
}
