// Package api exposes the finder operations over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"phone-finder-workers/internal/budget"
	"phone-finder-workers/internal/common/logger"
	"phone-finder-workers/internal/common/observability"
	"phone-finder-workers/internal/filters"
	"phone-finder-workers/internal/finder"
	"phone-finder-workers/internal/search"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Checker reports whether a dependency is usable. /ready runs every checker.
type Checker func(ctx context.Context) error

type Deps struct {
	Service        string
	Parser         *budget.Parser
	FormParser     *budget.Parser
	Resolver       *filters.Resolver
	Engine         *search.Engine
	Pipeline       *finder.Pipeline
	Checks         map[string]Checker
	Observability  *observability.Observability
	Logger         logger.Logger
	RequestTimeout time.Duration
}

// NewRouter builds the finder API with health, readiness and metrics routes.
func NewRouter(deps Deps) http.Handler {
	if deps.RequestTimeout <= 0 {
		deps.RequestTimeout = 50 * time.Second
	}
	if deps.FormParser == nil {
		deps.FormParser = deps.Parser
	}

	h := &Handler{
		parser:     deps.Parser,
		formParser: deps.FormParser,
		resolver:   deps.Resolver,
		engine:     deps.Engine,
		pipeline:   deps.Pipeline,
		logger:     deps.Logger.WithFields(map[string]interface{}{"component": "api"}),
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(h.logger, deps.Observability))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", health(deps.Service))
	r.Get("/ready", ready(deps.Checks))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(deps.RequestTimeout))
		r.Use(chimiddleware.AllowContentType("application/json"))

		r.Get("/questions", h.Questions)
		r.Post("/budget/parse", h.ParseBudget)
		r.Post("/filters/resolve", h.ResolveFilters)
		r.Post("/search", h.Search)
		r.Post("/find", h.Find)
	})

	return r
}
