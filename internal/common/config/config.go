// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Database DatabaseConfig          `mapstructure:"database"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Oracle   OracleConfig            `mapstructure:"oracle"`
	Search   SearchConfig            `mapstructure:"search"`
	HTTP     HTTPConfig              `mapstructure:"http"`
	Harvest  HarvestConfig           `mapstructure:"harvest"`
	Registry RegistryConfig          `mapstructure:"registry"`
	Logging  LoggingConfig           `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// SQLiteConfig points at the catalog file written by the harvester.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// --- Finder Configuration ---

// OracleConfig configures the chat-completion endpoint used for filter and
// number resolution.
type OracleConfig struct {
	BaseURL       string  `mapstructure:"base_url"`
	APIKey        string  `mapstructure:"api_key"`
	Model         string  `mapstructure:"model"`
	Timeout       int     `mapstructure:"timeout"`        // milliseconds
	NumberTimeout int     `mapstructure:"number_timeout"` // milliseconds, budget fallback only
	MaxRetries    int     `mapstructure:"max_retries"`
	RetryWait     int     `mapstructure:"retry_wait"` // milliseconds
	JSONMode      *bool   `mapstructure:"json_mode"`
	Temperature   float64 `mapstructure:"temperature"`
}

// JSONModeEnabled reports whether structured-output mode is requested. It
// defaults to true when unset.
func (o OracleConfig) JSONModeEnabled() bool {
	return o.JSONMode == nil || *o.JSONMode
}

// SearchConfig holds result limits and caching for the search engine.
type SearchConfig struct {
	StrictLimit  int  `mapstructure:"strict_limit"`
	RelaxedLimit int  `mapstructure:"relaxed_limit"`
	RelaxedPool  int  `mapstructure:"relaxed_pool"`
	CacheEnabled bool `mapstructure:"cache_enabled"`
	CacheTTL     int  `mapstructure:"cache_ttl"` // milliseconds
}

// HTTPConfig configures the finder API and the health/metrics endpoints.
type HTTPConfig struct {
	Address        string `mapstructure:"address"`
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// HarvestConfig configures the catalog harvester.
type HarvestConfig struct {
	SitemapURL    string `mapstructure:"sitemap_url"`
	ProductFilter string `mapstructure:"product_filter"`
	UserAgent     string `mapstructure:"user_agent"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
	Limit         int    `mapstructure:"limit"`
}

// RegistryConfig points at the activity registry with job input schemas.
type RegistryConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
