package domain

// ColumnType is a warehouse-neutral column type
type ColumnType string

const (
	ColumnString  ColumnType = "STRING"
	ColumnInteger ColumnType = "INTEGER"
	ColumnBoolean ColumnType = "BOOLEAN"
)

// Column describes one nullable column of a partition table
type Column struct {
	Name string
	Type ColumnType
}

// Column names of a partition table
const (
	ColEventName    = "Event_Name"
	ColEventDate    = "Event_Date"
	ColEventCount   = "Event_Count"
	ColIsConversion = "Is_Conversion"
	ColChannel      = "Channel"
	ColEventType    = "Event_Type"
)

// Schema is the fixed schema of every monthly partition table. All columns are nullable.
var Schema = []Column{
	{Name: ColEventName, Type: ColumnString},
	{Name: ColEventDate, Type: ColumnInteger},
	{Name: ColEventCount, Type: ColumnInteger},
	{Name: ColIsConversion, Type: ColumnBoolean},
	{Name: ColChannel, Type: ColumnString},
	{Name: ColEventType, Type: ColumnString},
}
