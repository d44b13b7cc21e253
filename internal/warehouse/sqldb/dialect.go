package sqldb

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/domain"
)

func init() {
	sqlx.BindDriver("snowflake", sqlx.QUESTION)
}

// Dialect holds what differs between the SQL warehouses
type Dialect struct {
	Name   string
	Driver string
	Types  map[domain.ColumnType]string

	// UpperSchema folds the schema name to upper case, the form an
	// unquoted schema is stored in
	UpperSchema bool
}

// Postgres is the PostgreSQL dialect, driven by lib/pq
var Postgres = Dialect{
	Name:   "postgres",
	Driver: "postgres",
	Types: map[domain.ColumnType]string{
		domain.ColumnString:  "TEXT",
		domain.ColumnInteger: "BIGINT",
		domain.ColumnBoolean: "BOOLEAN",
	},
}

// Snowflake is the Snowflake dialect, driven by gosnowflake
var Snowflake = Dialect{
	Name:   "snowflake",
	Driver: "snowflake",
	Types: map[domain.ColumnType]string{
		domain.ColumnString:  "VARCHAR",
		domain.ColumnInteger: "NUMBER(19,0)",
		domain.ColumnBoolean: "BOOLEAN",
	},
	UpperSchema: true,
}

// schemaName returns schema as the warehouse stores it
func (d Dialect) schemaName(schema string) string {
	if d.UpperSchema {
		return strings.ToUpper(schema)
	}
	return schema
}

// quote wraps an identifier in double quotes so its case is kept
func quote(name string) string {
	return `"` + name + `"`
}

func tableRef(schema, table string) string {
	return quote(schema) + "." + quote(table)
}

func (d Dialect) existsQuery() string {
	return `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = ? AND table_name = ?`
}

func (d Dialect) createTableQuery(ref string) string {
	columns := make([]string, 0, len(domain.Schema))
	for _, col := range domain.Schema {
		columns = append(columns, fmt.Sprintf("%s %s NULL", quote(col.Name), d.Types[col.Type]))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", ref, strings.Join(columns, ", "))
}

func (d Dialect) countQuery(ref string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s = ? AND %s = ? AND %s = ? AND %s = ?",
		ref,
		quote(domain.ColEventName),
		quote(domain.ColEventDate),
		quote(domain.ColEventCount),
		quote(domain.ColChannel))
}

func (d Dialect) insertQuery(ref string) string {
	names := make([]string, 0, len(domain.Schema))
	params := make([]string, 0, len(domain.Schema))
	for _, col := range domain.Schema {
		names = append(names, quote(col.Name))
		params = append(params, ":"+col.Name)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", ref, strings.Join(names, ", "), strings.Join(params, ", "))
}
