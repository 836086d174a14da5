// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top
// and applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// DATABASE_POSTGRES_HOST overrides database.postgres.host
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars replaces ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets that are conventionally provided through
// plain environment variables.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Oracle.APIKey == "" {
		if val := os.Getenv("OPENAI_API_KEY"); val != "" {
			cfg.Oracle.APIKey = val
		}
	}
	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

func defaultInt(field *int, value int) {
	if *field == 0 {
		*field = value
	}
}

func defaultString(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// applyDefaults fills every optional field left unset by the files and the
// environment. Durations are milliseconds.
func applyDefaults(cfg *Config) {
	defaultString(&cfg.App.Name, "phone-finder")

	defaultInt(&cfg.Camunda.MaxJobsActive, 10)
	defaultInt(&cfg.Camunda.Timeout, 30000)
	defaultInt(&cfg.Camunda.RequestTimeout, 30000)

	db := &cfg.Database
	defaultString(&db.Driver, DriverPostgres)
	defaultInt(&db.Postgres.Port, 5432)
	defaultInt(&db.Postgres.MaxConnections, 25)
	defaultInt(&db.Postgres.MaxIdle, 5)
	defaultString(&db.Postgres.SSLMode, "disable")

	// The resolver's oracle deadline is 30s end to end.
	defaultInt(&cfg.Oracle.Timeout, 30000)
	defaultInt(&cfg.Oracle.NumberTimeout, 10000)
	defaultInt(&cfg.Oracle.MaxRetries, 2)
	defaultInt(&cfg.Oracle.RetryWait, 500)

	defaultInt(&cfg.Search.StrictLimit, 5)
	defaultInt(&cfg.Search.RelaxedLimit, 3)
	defaultInt(&cfg.Search.RelaxedPool, 50)
	defaultInt(&cfg.Search.CacheTTL, 300000)

	defaultString(&cfg.HTTP.Address, ":8080")
	defaultInt(&cfg.HTTP.RequestTimeout, 50000)

	h := &cfg.Harvest
	defaultString(&h.SitemapURL, "https://www.ktronix.com/sitemap-productos.xml")
	defaultString(&h.ProductFilter, "/celular-")
	defaultString(&h.UserAgent, "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	defaultInt(&h.Timeout, 15000)
	defaultInt(&h.Limit, 1000)

	defaultString(&cfg.Registry.Path, "configs/activity-registry.json")

	defaultString(&cfg.Logging.Level, "info")
	defaultString(&cfg.Logging.Format, "json")
	defaultString(&cfg.Logging.Output, "stdout")

	for name, w := range cfg.Workers {
		defaultInt(&w.MaxJobsActive, defaultWorker.MaxJobsActive)
		defaultInt(&w.Timeout, defaultWorker.Timeout)
		defaultInt(&w.MaxRetries, defaultWorker.MaxRetries)
		cfg.Workers[name] = w
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	switch cfg.Database.Driver {
	case DriverPostgres:
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	case DriverSQLite:
		if cfg.Database.SQLite.Path == "" {
			return fmt.Errorf("database.sqlite.path is required")
		}
	default:
		return fmt.Errorf("database.driver %q is not supported", cfg.Database.Driver)
	}

	if cfg.Database.Redis.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required")
	}

	if cfg.Oracle.BaseURL == "" {
		return fmt.Errorf("oracle.base_url is required")
	}
	if cfg.Oracle.Model == "" {
		return fmt.Errorf("oracle.model is required")
	}

	if cfg.Search.StrictLimit < 0 || cfg.Search.RelaxedLimit < 0 {
		return fmt.Errorf("search limits must be positive")
	}
	if cfg.Search.StrictLimit > 5 {
		return fmt.Errorf("search.strict_limit must be at most 5, got %d", cfg.Search.StrictLimit)
	}
	if cfg.Search.RelaxedLimit > 3 {
		return fmt.Errorf("search.relaxed_limit must be at most 3, got %d", cfg.Search.RelaxedLimit)
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// defaultWorker applies to task types missing from the workers section.
var defaultWorker = WorkerConfig{
	Enabled:       true,
	MaxJobsActive: 5,
	Timeout:       30000,
	MaxRetries:    3,
}

// GetWorkerConfig returns the settings for taskType, or an enabled default
// worker when the section does not list it.
func GetWorkerConfig(cfg *Config, taskType string) WorkerConfig {
	if w, ok := cfg.Workers[taskType]; ok {
		return w
	}
	return defaultWorker
}
