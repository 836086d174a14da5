// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// ==========================
// Loading
// ==========================

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite3
  sqlite:
    path: phones.db
oracle:
  base_url: https://api.openai.com/v1
  model: gpt-4o-mini
workers:
  search-catalog:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 5, cfg.Search.StrictLimit)
	assert.Equal(t, 3, cfg.Search.RelaxedLimit)
	assert.Equal(t, 50, cfg.Search.RelaxedPool)
	assert.Equal(t, 30000, cfg.Oracle.Timeout)
	assert.Equal(t, 2, cfg.Oracle.MaxRetries)
	assert.True(t, cfg.Oracle.JSONModeEnabled())
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "/celular-", cfg.Harvest.ProductFilter)
	assert.Equal(t, 1000, cfg.Harvest.Limit)

	wc := cfg.Workers["search-catalog"]
	assert.True(t, wc.Enabled)
	assert.Equal(t, 5, wc.MaxJobsActive)
	assert.Equal(t, 30000, wc.Timeout)
	assert.Equal(t, 3, wc.MaxRetries)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("FINDER_TEST_ORACLE_KEY", "sk-test")
	path := writeConfig(t, `
database:
  driver: sqlite3
  sqlite:
    path: phones.db
oracle:
  base_url: https://api.openai.com/v1
  model: gpt-4o-mini
  api_key: ${FINDER_TEST_ORACLE_KEY}
  json_mode: false
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.Oracle.APIKey)
	assert.False(t, cfg.Oracle.JSONModeEnabled())
}

// ==========================
// Validation
// ==========================

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{
			Database: DatabaseConfig{
				Driver:   DriverPostgres,
				Postgres: PostgresConfig{Host: "localhost", Database: "catalog", User: "finder"},
			},
			Oracle: OracleConfig{BaseURL: "http://oracle", Model: "gpt-4o-mini"},
		}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid postgres", mutate: func(c *Config) {}},
		{
			name:    "missing postgres host",
			mutate:  func(c *Config) { c.Database.Postgres.Host = "" },
			wantErr: "database.postgres.host",
		},
		{
			name: "sqlite needs path",
			mutate: func(c *Config) {
				c.Database.Driver = DriverSQLite
			},
			wantErr: "database.sqlite.path",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Database.Driver = "mysql" },
			wantErr: "not supported",
		},
		{
			name: "camunda enabled without broker",
			mutate: func(c *Config) {
				c.Camunda.Enabled = true
			},
			wantErr: "camunda.broker_address",
		},
		{
			name:    "redis enabled without address",
			mutate:  func(c *Config) { c.Database.Redis.Enabled = true },
			wantErr: "database.redis.address",
		},
		{
			name:    "strict limit above five",
			mutate:  func(c *Config) { c.Search.StrictLimit = 6 },
			wantErr: "search.strict_limit",
		},
		{
			name:    "relaxed limit above three",
			mutate:  func(c *Config) { c.Search.RelaxedLimit = 4 },
			wantErr: "search.relaxed_limit",
		},
		{
			name:   "lower limits allowed",
			mutate: func(c *Config) { c.Search.StrictLimit, c.Search.RelaxedLimit = 2, 1 },
		},
		{
			name:    "oracle model required",
			mutate:  func(c *Config) { c.Oracle.Model = "" },
			wantErr: "oracle.model",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 30*time.Second, GetDuration(30000))
	assert.Equal(t, time.Duration(0), GetDuration(0))
}

func TestGetWorkerConfig_FallsBack(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{}}
	wc := GetWorkerConfig(cfg, "parse-budget")
	assert.True(t, wc.Enabled)
	assert.Equal(t, 30000, wc.Timeout)

	cfg.Workers["parse-budget"] = WorkerConfig{Enabled: false, Timeout: 35000}
	wc = GetWorkerConfig(cfg, "parse-budget")
	assert.False(t, wc.Enabled)
	assert.Equal(t, 35000, wc.Timeout)
}
