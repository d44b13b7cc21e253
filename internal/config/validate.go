package config

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the layout of INITIAL_FETCH_FROM_DATE and of fetch windows
const DateLayout = "2006-01-02"

// MaxPageSize is the most rows the Data API returns for one request
const MaxPageSize = 250000

// Validate checks values envconfig cannot check on its own
func (c *Config) Validate() error {
	if _, err := time.Parse(DateLayout, c.Warehouse.InitialFetchFromDate); err != nil {
		return fmt.Errorf("WAREHOUSE_INITIAL_FETCH_FROM_DATE must be YYYY-MM-DD: %w", err)
	}

	if c.Analytics.PageSize <= 0 || c.Analytics.PageSize > MaxPageSize {
		return fmt.Errorf("GA_PAGE_SIZE must be between 1 and %d", MaxPageSize)
	}

	if len(c.Auth.Scopes) == 0 {
		return errors.New("AUTH_SCOPES must not be empty")
	}

	switch c.Export.Format {
	case FormatCSV, FormatParquet:
	default:
		return fmt.Errorf("unsupported EXPORT_FORMAT %q (supported: csv, parquet)", c.Export.Format)
	}

	switch c.Warehouse.Driver {
	case DriverBigQuery:
		if c.Auth.ServiceAccountFile == "" {
			return errors.New("AUTH_SERVICE_ACCOUNT_FILE is required for the bigquery driver")
		}
	case DriverClickHouse:
		if c.ClickHouse.Host == "" {
			return errors.New("CLICKHOUSE_HOST is required for the clickhouse driver")
		}
	case DriverPostgres:
		if c.Postgres.User == "" || c.Postgres.DB == "" {
			return errors.New("POSTGRES_USER and POSTGRES_DB are required for the postgres driver")
		}
	case DriverSnowflake:
		if c.Snowflake.Account == "" || c.Snowflake.User == "" || c.Snowflake.Database == "" {
			return errors.New("SNOWFLAKE_ACCOUNT, SNOWFLAKE_USER and SNOWFLAKE_DATABASE are required for the snowflake driver")
		}
	default:
		return fmt.Errorf("unsupported WAREHOUSE_DRIVER %q (supported: bigquery, clickhouse, postgres, snowflake)", c.Warehouse.Driver)
	}

	return nil
}
