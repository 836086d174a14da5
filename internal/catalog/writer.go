// internal/catalog/writer.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"phone-finder-workers/internal/common/config"
	"phone-finder-workers/internal/models"

	"github.com/jmoiron/sqlx"
)

var ErrInvalidListing = errors.New("INVALID_LISTING")

const schemaSQLite = `CREATE TABLE IF NOT EXISTS phones (
	id INTEGER PRIMARY KEY,
	name TEXT, url TEXT, price_cop INTEGER,
	brand TEXT, storage_gb INTEGER, ram_gb INTEGER,
	camera_mp INTEGER, battery_mah INTEGER,
	screen_size_in REAL, processor TEXT, os TEXT
)`

const schemaPostgres = `CREATE TABLE IF NOT EXISTS phones (
	id SERIAL PRIMARY KEY,
	name TEXT, url TEXT, price_cop INTEGER,
	brand TEXT, storage_gb INTEGER, ram_gb INTEGER,
	camera_mp INTEGER, battery_mah INTEGER,
	screen_size_in REAL, processor TEXT, os TEXT
)`

const indexURL = `CREATE INDEX IF NOT EXISTS idx_phones_url ON phones (url)`

const updateListing = `UPDATE phones SET
	name = ?, price_cop = ?, brand = ?, storage_gb = ?, ram_gb = ?,
	camera_mp = ?, battery_mah = ?, screen_size_in = ?, processor = ?, os = ?
WHERE url = ?`

const insertListing = `INSERT INTO phones
	(name, url, price_cop, brand, storage_gb, ram_gb, camera_mp, battery_mah, screen_size_in, processor, os)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Writer is the ingestion side of the catalog used by the harvester.
type Writer struct {
	db *sqlx.DB
}

func NewWriter(db *sqlx.DB) *Writer {
	return &Writer{db: db}
}

// InitSchema creates the phones table when it does not exist.
func (w *Writer) InitSchema(ctx context.Context) error {
	schema := schemaSQLite
	if w.db.DriverName() == config.DriverPostgres {
		schema = schemaPostgres
	}

	for _, stmt := range []string{schema, indexURL} {
		if _, err := w.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init catalog schema: %w", err)
		}
	}
	return nil
}

// Upsert stores l keyed by its URL. It reports whether a new row was inserted.
func (w *Writer) Upsert(ctx context.Context, l models.PhoneListing) (bool, error) {
	if l.URL == "" || l.Name == "" {
		return false, fmt.Errorf("%w: name and url are required", ErrInvalidListing)
	}

	tx, err := w.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, tx.Rebind(updateListing),
		l.Name, nullInt(l.PriceCOP), nullString(l.Brand), nullInt(l.StorageGB), nullInt(l.RAMGB),
		nullInt(l.CameraMP), nullInt(l.BatteryMAH), nullFloat(l.ScreenSizeIn), nullString(l.Processor), nullString(l.OS),
		l.URL,
	)
	if err != nil {
		return false, fmt.Errorf("update listing %s: %w", l.URL, err)
	}

	updated, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update listing %s: %w", l.URL, err)
	}

	inserted := false
	if updated == 0 {
		if _, err := tx.ExecContext(ctx, tx.Rebind(insertListing),
			l.Name, l.URL, nullInt(l.PriceCOP), nullString(l.Brand), nullInt(l.StorageGB), nullInt(l.RAMGB),
			nullInt(l.CameraMP), nullInt(l.BatteryMAH), nullFloat(l.ScreenSizeIn), nullString(l.Processor), nullString(l.OS),
		); err != nil {
			return false, fmt.Errorf("insert listing %s: %w", l.URL, err)
		}
		inserted = true
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit listing %s: %w", l.URL, err)
	}
	return inserted, nil
}

// zero values mean "not found on the page" and are stored as NULL
func nullInt(v int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(v), Valid: v != 0}
}

func nullFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: v != 0}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
