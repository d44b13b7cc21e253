// Package backend opens the warehouse selected by WAREHOUSE_DRIVER.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"

	"github.com/BarkinBalci/ga4-warehouse-loader/internal/config"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/warehouse"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/warehouse/bigquery"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/warehouse/clickhouse"
	"github.com/BarkinBalci/ga4-warehouse-loader/internal/warehouse/sqldb"
)

// Open connects to the configured warehouse. creds are required by the
// BigQuery driver and ignored by the others.
func Open(ctx context.Context, cfg *config.Config, creds *google.Credentials, log *zap.Logger) (warehouse.Warehouse, error) {
	dataset := cfg.Warehouse.DatasetID

	switch cfg.Warehouse.Driver {
	case config.DriverBigQuery:
		if creds == nil {
			return nil, errors.New("the bigquery driver requires service account credentials")
		}
		projectID := cfg.BigQuery.ProjectID
		if projectID == "" {
			projectID = creds.ProjectID
		}
		return bigquery.NewWarehouse(ctx, projectID, dataset, log, option.WithCredentials(creds))

	case config.DriverClickHouse:
		client, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, dataset, log)
		if err != nil {
			return nil, err
		}
		return clickhouse.NewWarehouse(client, log), nil

	case config.DriverPostgres:
		return sqldb.Open(ctx, sqldb.Postgres, cfg.Postgres.ConnectionString(), dataset, log)

	case config.DriverSnowflake:
		dsn, err := SnowflakeDSN(cfg.Snowflake, dataset)
		if err != nil {
			return nil, err
		}
		return sqldb.Open(ctx, sqldb.Snowflake, dsn, dataset, log)

	default:
		return nil, fmt.Errorf("unsupported warehouse driver %q", cfg.Warehouse.Driver)
	}
}

// SnowflakeDSN builds a gosnowflake DSN with dataset as the schema
func SnowflakeDSN(sf config.Snowflake, dataset string) (string, error) {
	dsn, err := gosnowflake.DSN(&gosnowflake.Config{
		Account:   sf.Account,
		User:      sf.User,
		Password:  sf.Password,
		Database:  sf.Database,
		Schema:    dataset,
		Warehouse: sf.Warehouse,
		Role:      sf.Role,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build Snowflake DSN: %w", err)
	}
	return dsn, nil
}
