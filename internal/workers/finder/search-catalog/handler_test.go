package searchcatalog

import (
	"context"
	"testing"
	"time"

	"phone-finder-workers/internal/catalog"
	"phone-finder-workers/internal/common/errors"
	"phone-finder-workers/internal/common/logger"
	"phone-finder-workers/internal/finder"
	"phone-finder-workers/internal/models"
	"phone-finder-workers/internal/search"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func setupCatalog(t *testing.T) *catalog.Store {
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	w := catalog.NewWriter(db)
	require.NoError(t, w.InitSchema(context.Background()))

	for _, p := range []models.Phone{
		{Name: "Galaxy A15", URL: "u/a15", PriceCOP: 900_000, StorageGB: 128, RAMGB: 4, CameraMP: 50, Brand: "Samsung"},
		{Name: "Redmi Note 13", URL: "u/rn13", PriceCOP: 950_000, StorageGB: 256, RAMGB: 8, CameraMP: 108, Brand: "Xiaomi"},
		{Name: "Moto G54", URL: "u/g54", PriceCOP: 700_000, StorageGB: 128, RAMGB: 4, CameraMP: 50, Brand: "Motorola"},
	} {
		_, err := w.Upsert(context.Background(), models.PhoneListing{Phone: p})
		require.NoError(t, err)
	}
	return catalog.NewStore(db, logger.NewNoOpLogger())
}

func createTestHandler(t *testing.T, c search.Catalog) *Handler {
	log := logger.NewTestLogger(t)
	return NewHandler(&Config{Timeout: 5 * time.Second}, search.NewEngine(c, search.DefaultOptions(), log), log)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name        string
		filter      models.Filter
		found       bool
		relaxed     bool
		names       []string
		messageFrom func(n int) string
	}{
		{
			name:        "strict match",
			filter:      models.Filter{Brand: models.StringPtr("samsung"), MaxPrice: models.IntPtr(1_000_000)},
			found:       true,
			names:       []string{"Galaxy A15"},
			messageFrom: func(int) string { return "" },
		},
		{
			name:        "brand relaxed",
			filter:      models.Filter{Brand: models.StringPtr("Nokia"), MaxPrice: models.IntPtr(1_000_000)},
			found:       true,
			relaxed:     true,
			names:       []string{"Redmi Note 13", "Galaxy A15", "Moto G54"},
			messageFrom: search.Explanation,
		},
		{
			name:        "nothing under budget",
			filter:      models.Filter{MaxPrice: models.IntPtr(100_000)},
			names:       []string{},
			messageFrom: func(int) string { return finder.NoMatchMessage },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := createTestHandler(t, setupCatalog(t)).Execute(context.Background(), &Input{Filter: tt.filter})
			require.NoError(t, err)

			names := []string{}
			for _, p := range output.Results.Phones {
				names = append(names, p.Name)
			}
			assert.Equal(t, tt.names, names)
			assert.Equal(t, tt.found, output.Found)
			assert.Equal(t, tt.relaxed, output.Relaxed)
			assert.Equal(t, tt.messageFrom(len(names)), output.Message)
		})
	}
}

// ==========================
// Error Tests
// ==========================

func TestHandler_Execute_QueryFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnError(assert.AnError)

	store := catalog.NewStore(sqlx.NewDb(db, "postgres"), logger.NewNoOpLogger())
	_, err = createTestHandler(t, store).Execute(context.Background(), &Input{Filter: models.Filter{}})

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeQueryExecutionFailed, finder.StandardError(err).Code)
}
