// internal/api/middleware.go
package api

import (
	"net/http"
	"time"

	"phone-finder-workers/internal/common/logger"
	"phone-finder-workers/internal/common/observability"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// requestLogger logs one line per request and records its duration under
// the matched route pattern.
func requestLogger(log logger.Logger, obs *observability.Observability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			elapsed := time.Since(start)

			obs.RecordRequest(r.Context(), route, status, elapsed)

			if route == "/health" || route == "/metrics" {
				return
			}
			log.Info("request handled", map[string]interface{}{
				"requestId":  chimiddleware.GetReqID(r.Context()),
				"method":     r.Method,
				"route":      route,
				"status":     status,
				"durationMs": elapsed.Milliseconds(),
			})
		})
	}
}
