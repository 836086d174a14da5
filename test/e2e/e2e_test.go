// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phone-finder-workers/internal/api"
	"phone-finder-workers/internal/budget"
	"phone-finder-workers/internal/catalog"
	"phone-finder-workers/internal/common/camunda"
	"phone-finder-workers/internal/common/config"
	"phone-finder-workers/internal/common/database"
	"phone-finder-workers/internal/common/logger"
	"phone-finder-workers/internal/common/oracle"
	"phone-finder-workers/internal/filters"
	"phone-finder-workers/internal/finder"
	"phone-finder-workers/internal/harvest"
	"phone-finder-workers/internal/models"
	"phone-finder-workers/internal/search"
)

// ==========================
// Stub Services
// ==========================

// stubOracle is an OpenAI-compatible /chat/completions endpoint. JSON mode
// requests get the filter reply, plain requests get the number reply.
type stubOracle struct {
	mu          sync.Mutex
	filterReply string
	numberReply string
	status      int
	calls       int
}

func (s *stubOracle) set(filterReply, numberReply string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filterReply, s.numberReply, s.status, s.calls = filterReply, numberReply, status, 0
}

func (s *stubOracle) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubOracle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	if s.status != 0 && s.status != http.StatusOK {
		w.WriteHeader(s.status)
		_, _ = w.Write([]byte(`{"error":{"message":"stub failure","type":"server_error"}}`))
		return
	}

	var body struct {
		ResponseFormat *struct {
			Type string `json:"type"`
		} `json:"response_format"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	content := s.numberReply
	if body.ResponseFormat != nil {
		content = s.filterReply
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
}

type stack struct {
	server *httptest.Server
	oracle *stubOracle
	db     *database.SQLClient
}

func newStack(t *testing.T) *stack {
	t.Helper()
	log := logger.NewTestLogger(t)

	stub := &stubOracle{}
	oracleServer := httptest.NewServer(stub)
	t.Cleanup(oracleServer.Close)

	db, err := database.NewSQLite(config.SQLiteConfig{Path: filepath.Join(t.TempDir(), "phones.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, catalog.NewWriter(db.DB).InitSchema(context.Background()))

	client := oracle.NewClient(&oracle.Config{
		BaseURL: oracleServer.URL,
		APIKey:  "sk-e2e",
		Model:   "gpt-4o-mini",
		Timeout: 5 * time.Second,
	}, log)

	parser := budget.NewParser(client, log)
	resolver := filters.NewResolver(client, true, log)
	engine := search.NewEngine(catalog.NewStore(db.DB, log), search.DefaultOptions(), log)

	server := httptest.NewServer(api.NewRouter(api.Deps{
		Service:    "phone-finder-e2e",
		Parser:     parser,
		FormParser: budget.NewParser(nil, log),
		Resolver:   resolver,
		Engine:     engine,
		Pipeline:   finder.NewPipeline(parser, resolver, engine, log),
		Checks:     map[string]api.Checker{"database": db.Ping},
		Logger:     log,
	}))
	t.Cleanup(server.Close)

	return &stack{server: server, oracle: stub, db: db}
}

func (s *stack) seed(t *testing.T, phones ...models.Phone) {
	w := catalog.NewWriter(s.db.DB)
	for _, p := range phones {
		_, err := w.Upsert(context.Background(), models.PhoneListing{Phone: p})
		require.NoError(t, err)
	}
}

func (s *stack) post(t *testing.T, path string, body interface{}, out interface{}) int {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)

	resp, err := http.Post(s.server.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

var demoCatalog = []models.Phone{
	{Name: "Galaxy A15", URL: "https://shop.test/celular-a15", PriceCOP: 899_900, StorageGB: 128, RAMGB: 4, CameraMP: 50, Brand: "SAMSUNG"},
	{Name: "Galaxy A25", URL: "https://shop.test/celular-a25", PriceCOP: 1_199_000, StorageGB: 256, RAMGB: 8, CameraMP: 50, Brand: "SAMSUNG"},
	{Name: "Redmi Note 13", URL: "https://shop.test/celular-rn13", PriceCOP: 949_000, StorageGB: 256, RAMGB: 8, CameraMP: 108, Brand: "XIAOMI"},
	{Name: "Moto G54", URL: "https://shop.test/celular-g54", PriceCOP: 699_000, StorageGB: 128, RAMGB: 4, CameraMP: 50, Brand: "MOTOROLA"},
	{Name: "iPhone 15", URL: "https://shop.test/celular-ip15", PriceCOP: 4_299_000, StorageGB: 128, RAMGB: 6, CameraMP: 48, Brand: "APPLE"},
}

// ==========================
// Finder Flow
// ==========================

func TestE2E_GuidedFlow(t *testing.T) {
	s := newStack(t)
	s.seed(t, demoCatalog...)

	t.Run("strict match", func(t *testing.T) {
		s.oracle.set(`{"brand":"samsung","max_price":1000000,"min_storage":128,"min_ram":null,"min_camera_mp":null}`, "", 0)

		var result finder.Result
		status := s.post(t, "/api/v1/find", finder.Request{Answers: models.AnswerSet{
			"budget":  "1 millón",
			"brand":   "Samsung",
			"storage": "128 GB",
		}}, &result)

		require.Equal(t, http.StatusOK, status)
		assert.True(t, result.BudgetParsed)
		assert.Equal(t, 1_000_000, result.Budget)
		assert.Equal(t, models.SearchPathStrict, result.Results.Path)
		require.Len(t, result.Results.Phones, 1)
		assert.Equal(t, "Galaxy A15", result.Results.Phones[0].Name)
	})

	t.Run("brand relaxed", func(t *testing.T) {
		s.oracle.set(`{"brand":"Nokia","max_price":1000000}`, "", 0)

		var result finder.Result
		status := s.post(t, "/api/v1/find", finder.Request{Answers: models.AnswerSet{
			"budget": "1m",
			"brand":  "Nokia",
		}}, &result)

		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, models.SearchPathRelaxed, result.Results.Path)
		names := []string{}
		for _, p := range result.Results.Phones {
			names = append(names, p.Name)
		}
		assert.Equal(t, []string{"Redmi Note 13", "Galaxy A15", "Moto G54"}, names)
		assert.Equal(t, search.Explanation(3), result.Message)
	})

	t.Run("budget through the oracle", func(t *testing.T) {
		s.oracle.set(`{"max_price":null,"min_camera_mp":100}`, "1000000", 0)

		var result finder.Result
		status := s.post(t, "/api/v1/find", finder.Request{Answers: models.AnswerSet{
			"budget": "un palo",
			"camera": "Muy importante",
		}}, &result)

		require.Equal(t, http.StatusOK, status)
		assert.True(t, result.BudgetParsed)
		assert.Equal(t, models.IntPtr(1_000_000), result.Filter.MaxPrice)
		require.Len(t, result.Results.Phones, 1)
		assert.Equal(t, "Redmi Note 13", result.Results.Phones[0].Name)
	})

	t.Run("no matches", func(t *testing.T) {
		s.oracle.set(`{"max_price":100000}`, "", 0)

		var result finder.Result
		status := s.post(t, "/api/v1/find", finder.Request{Utterance: "uno de 100 mil"}, &result)

		require.Equal(t, http.StatusOK, status)
		assert.Empty(t, result.Results.Phones)
		assert.Equal(t, finder.NoMatchMessage, result.Message)
	})
}

func TestE2E_OracleUnavailable(t *testing.T) {
	s := newStack(t)
	s.seed(t, demoCatalog...)
	s.oracle.set("", "", http.StatusServiceUnavailable)

	var body api.ErrorResponse
	status := s.post(t, "/api/v1/find", finder.Request{Utterance: "un samsung barato"}, &body)

	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "FILTER_RESOLUTION_FAILED", string(body.Code))
	assert.True(t, body.Retryable)
}

func TestE2E_FormSearchSkipsOracle(t *testing.T) {
	s := newStack(t)
	s.seed(t, demoCatalog...)
	s.oracle.set("", "", 0)

	var resp api.SearchResponse
	status := s.post(t, "/api/v1/search", map[string]interface{}{
		"form": map[string]interface{}{"budget": "5.000.000", "brand": "apple"},
	}, &resp)

	require.Equal(t, http.StatusOK, status)
	require.Len(t, resp.Results.Phones, 1)
	assert.Equal(t, "iPhone 15", resp.Results.Phones[0].Name)
	assert.Zero(t, s.oracle.count())
}

// ==========================
// Harvest Then Search
// ==========================

func TestE2E_HarvestThenSearch(t *testing.T) {
	s := newStack(t)

	mux := http.NewServeMux()
	shop := httptest.NewServer(mux)
	defer shop.Close()

	mux.HandleFunc("/sitemap-productos.xml", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>` + shop.URL + `/celular-motorola-g54/p/1</loc></url>
  <url><loc>` + shop.URL + `/audifonos-jbl/p/2</loc></url>
</urlset>`))
	})
	mux.HandleFunc("/celular-motorola-g54/p/1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
<h1>Celular MOTOROLA G54 256GB</h1>
<div class="price-box"><span class="skuBestPrice">$ 749.900</span></div>
<ul class="product-specs-list">
  <li>Memoria Interna - 256 GB</li>
  <li>Memoria RAM - 8 GB</li>
  <li>Resolución cámara posterior - 50 MP</li>
  <li>Marca - MOTOROLA</li>
</ul>
</body></html>`))
	})

	h := harvest.NewHarvester(
		harvest.NewHTTPFetcher("Mozilla/5.0 (e2e)", 2*time.Second),
		catalog.NewWriter(s.db.DB),
		harvest.Options{SitemapURL: shop.URL + "/sitemap-productos.xml", ProductFilter: "/celular-"},
		logger.NewTestLogger(t),
	)
	report, err := h.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Inserted)

	var resp api.SearchResponse
	status := s.post(t, "/api/v1/search", map[string]interface{}{
		"filter": map[string]interface{}{"brand": "motorola", "min_ram": 8},
	}, &resp)

	require.Equal(t, http.StatusOK, status)
	require.Len(t, resp.Results.Phones, 1)
	assert.Equal(t, "Celular MOTOROLA G54 256GB", resp.Results.Phones[0].Name)
	assert.Equal(t, 749_900, resp.Results.Phones[0].PriceCOP)
}

// ==========================
// Live Broker
// ==========================

func TestE2E_ZeebeTopology(t *testing.T) {
	address := os.Getenv("ZEEBE_ADDRESS")
	if address == "" {
		t.Skip("ZEEBE_ADDRESS not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         address,
		UsePlaintextConnection: true,
		RetryConfig:            &camunda.RetryConfig{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 4 * time.Second},
	}, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.HealthCheck(ctx))
}
