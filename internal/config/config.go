package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// DefaultPath is the config file read when no --config flag is given
const DefaultPath = "config.env"

// Warehouse drivers
const (
	DriverBigQuery   = "bigquery"
	DriverClickHouse = "clickhouse"
	DriverPostgres   = "postgres"
	DriverSnowflake  = "snowflake"
)

// Export formats
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// Config is the job configuration. Keys are the section prefix joined with the
// upper snake case field name, e.g. CLICKHOUSE_MAX_OPEN_CONNS.
type Config struct {
	Service    Service    `envconfig:"SERVICE"`
	Analytics  Analytics  `envconfig:"GA"`
	Auth       Auth       `envconfig:"AUTH"`
	Warehouse  Warehouse  `envconfig:"WAREHOUSE"`
	BigQuery   BigQuery   `envconfig:"BIGQUERY"`
	ClickHouse ClickHouse `envconfig:"CLICKHOUSE"`
	Postgres   Postgres   `envconfig:"POSTGRES"`
	Snowflake  Snowflake  `envconfig:"SNOWFLAKE"`
	Export     Export     `envconfig:"EXPORT"`
	Archive    Archive    `envconfig:"ARCHIVE_S3"`
	Notify     Notify     `envconfig:"NOTIFY_SQS"`
}

type Service struct {
	Environment string `split_words:"true" default:"development"`
	LogLevel    string `split_words:"true"`
}

type Analytics struct {
	PropertyID             string `split_words:"true" required:"true"`
	PageSize               int64  `split_words:"true" default:"10000"`
	MaxRetries             uint64 `split_words:"true" default:"3"`
	RetryInitialIntervalMs int    `split_words:"true" default:"500"`
}

// RetryInitialInterval returns the first backoff interval
func (a Analytics) RetryInitialInterval() time.Duration {
	return time.Duration(a.RetryInitialIntervalMs) * time.Millisecond
}

type Auth struct {
	ClientSecretFile   string   `split_words:"true" required:"true"`
	Scopes             []string `split_words:"true" default:"https://www.googleapis.com/auth/analytics.readonly"`
	TokenCacheFile     string   `split_words:"true" default:"token.json"`
	RedirectPort       int      `split_words:"true" default:"8080"`
	ServiceAccountFile string   `split_words:"true"`
}

type Warehouse struct {
	Driver               string `split_words:"true" default:"bigquery"`
	DatasetID            string `split_words:"true" required:"true"`
	TablePrefix          string `split_words:"true" required:"true"`
	InitialFetchFromDate string `split_words:"true" required:"true"`
}

type BigQuery struct {
	ProjectID string `split_words:"true"`
}

type ClickHouse struct {
	Host               string `split_words:"true"`
	Port               string `split_words:"true" default:"9000"`
	User               string `split_words:"true" default:""`
	Password           string `split_words:"true" default:""`
	UseTLS             bool   `split_words:"true" default:"false"`
	MaxOpenConns       int    `split_words:"true" default:"5"`
	MaxIdleConns       int    `split_words:"true" default:"2"`
	ConnMaxLifetimeSec int    `split_words:"true" default:"3600"`
}

type Postgres struct {
	Host     string `split_words:"true" default:"localhost"`
	Port     int    `split_words:"true" default:"5432"`
	User     string `split_words:"true"`
	Password string `split_words:"true"`
	DB       string `split_words:"true"`
	SSLMode  string `split_words:"true" default:"disable"`
}

// ConnectionString returns a lib/pq keyword DSN
func (p Postgres) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DB, p.SSLMode)
}

type Snowflake struct {
	Account   string `split_words:"true"`
	User      string `split_words:"true"`
	Password  string `split_words:"true"`
	Database  string `split_words:"true"`
	Warehouse string `split_words:"true"`
	Role      string `split_words:"true"`
}

type Export struct {
	Path   string `split_words:"true" default:"output.csv"`
	Format string `split_words:"true" default:"csv"`
}

type Archive struct {
	Bucket   string `split_words:"true"`
	Prefix   string `split_words:"true" default:"ga4-exports"`
	Region   string `split_words:"true" default:"us-east-1"`
	Endpoint string `split_words:"true"`
}

// Enabled reports whether export archiving is configured
func (a Archive) Enabled() bool {
	return a.Bucket != ""
}

type Notify struct {
	QueueURL string `split_words:"true"`
	Region   string `split_words:"true" default:"us-east-1"`
	Endpoint string `split_words:"true"`
}

// Enabled reports whether run-summary notifications are configured
func (n Notify) Enabled() bool {
	return n.QueueURL != ""
}

// Load reads the env-format config file at path and decodes it, together with
// the process environment, into a Config. Variables already set in the
// environment take precedence over the file.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	if err := godotenv.Load(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
