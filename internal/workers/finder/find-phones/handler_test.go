package findphones

import (
	"context"
	"testing"
	"time"

	"phone-finder-workers/internal/budget"
	"phone-finder-workers/internal/catalog"
	"phone-finder-workers/internal/common/errors"
	"phone-finder-workers/internal/common/logger"
	"phone-finder-workers/internal/common/oracle"
	"phone-finder-workers/internal/filters"
	"phone-finder-workers/internal/finder"
	"phone-finder-workers/internal/models"
	"phone-finder-workers/internal/search"

	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type MockOracle struct {
	mock.Mock
}

func (m *MockOracle) Complete(ctx context.Context, req oracle.CompletionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func setupCatalog(t *testing.T) *catalog.Store {
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	w := catalog.NewWriter(db)
	require.NoError(t, w.InitSchema(context.Background()))

	for _, p := range []models.Phone{
		{Name: "iPhone 13", URL: "u/ip13", PriceCOP: 2_800_000, StorageGB: 128, RAMGB: 4, CameraMP: 12, Brand: "Apple"},
		{Name: "Redmi Note 13", URL: "u/rn13", PriceCOP: 950_000, StorageGB: 256, RAMGB: 8, CameraMP: 108, Brand: "Xiaomi"},
		{Name: "Galaxy A25", URL: "u/a25", PriceCOP: 1_199_000, StorageGB: 256, RAMGB: 8, CameraMP: 50, Brand: "Samsung"},
	} {
		_, err := w.Upsert(context.Background(), models.PhoneListing{Phone: p})
		require.NoError(t, err)
	}
	return catalog.NewStore(db, logger.NewNoOpLogger())
}

func createTestHandler(t *testing.T, o oracle.Oracle, cache *search.Cache) *Handler {
	log := logger.NewTestLogger(t)
	engine := search.NewEngine(setupCatalog(t), search.DefaultOptions(), log)
	if cache != nil {
		engine = engine.WithCache(cache)
	}
	pipeline := finder.NewPipeline(budget.NewParser(o, log), filters.NewResolver(o, true, log), engine, log)
	return NewHandler(&Config{Timeout: 5 * time.Second}, pipeline, log)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Relaxed(t *testing.T) {
	o := new(MockOracle)
	o.On("Complete", mock.Anything, mock.Anything).Return(`{"brand":"Apple","max_price":1500000}`, nil).Once()

	output, err := createTestHandler(t, o, nil).Execute(context.Background(), &Input{
		Answers: map[string]string{"budget": "1.500.000", "brand": "Apple"},
	})

	require.NoError(t, err)
	assert.True(t, output.Found)
	assert.True(t, output.Results.Relaxed())
	require.Len(t, output.Results.Phones, 2)
	assert.Equal(t, "Redmi Note 13", output.Results.Phones[0].Name)
	assert.Equal(t, "Galaxy A25", output.Results.Phones[1].Name)
	assert.Equal(t, search.Explanation(2), output.Message)
	assert.Equal(t, []string{}, output.DroppedFields)
}

func TestHandler_Execute_CachedSecondRun(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := search.NewCache(rdb, time.Minute)

	o := new(MockOracle)
	o.On("Complete", mock.Anything, mock.Anything).Return(`{"brand":"Xiaomi"}`, nil).Twice()

	h := createTestHandler(t, o, cache)
	input := &Input{Utterance: "un Xiaomi"}

	first, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	second, err := h.Execute(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first.Results, second.Results)
	assert.Len(t, mr.Keys(), 1)
	o.AssertExpectations(t)
}

// ==========================
// Error Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	t.Run("empty request", func(t *testing.T) {
		_, err := createTestHandler(t, new(MockOracle), nil).Execute(context.Background(), &Input{})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeInvalidFilterFormat, finder.StandardError(err).Code)
	})

	t.Run("oracle down", func(t *testing.T) {
		o := new(MockOracle)
		o.On("Complete", mock.Anything, mock.Anything).Return("", oracle.ErrOracleUnavailable).Once()

		_, err := createTestHandler(t, o, nil).Execute(context.Background(), &Input{Utterance: "algo bueno"})
		require.Error(t, err)
		stdErr := finder.StandardError(err)
		assert.Equal(t, errors.ErrCodeFilterResolutionFailed, stdErr.Code)
		assert.True(t, stdErr.Retryable)
	})
}
