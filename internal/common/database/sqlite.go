// internal/common/database/sqlite.go
package database

import (
	"fmt"

	"phone-finder-workers/internal/common/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// NewSQLite opens the file-backed catalog produced by the harvester.
func NewSQLite(cfg config.SQLiteConfig) (*SQLClient, error) {
	db, err := sqlx.Open(config.DriverSQLite, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %s: %w", cfg.Path, err)
	}

	// :memory: catalogs exist per connection
	db.SetMaxOpenConns(1)

	return &SQLClient{DB: db}, nil
}
