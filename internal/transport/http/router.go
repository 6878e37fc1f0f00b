// Package http assembles the service's HTTP surface: middleware chain,
// handler registration, health and metrics endpoints.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cataloghandler "sdagate/internal/catalog/handler"
	evaluationhandler "sdagate/internal/evaluation/handler"
	"sdagate/internal/platform/metrics"
	"sdagate/internal/platform/middleware"
	"sdagate/internal/transport/http/shared"
)

const requestTimeout = 15 * time.Second

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps carries everything the router wires together.
type Deps struct {
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Catalog    *cataloghandler.Handler
	Evaluation *evaluationhandler.Handler
	// Database is nil when running on in-memory stores.
	Database Pinger
}

// NewRouter builds the root chi router.
func NewRouter(deps Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Latency(deps.Metrics))

	r.Get("/healthz", healthHandler(deps.Database))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		deps.Catalog.Register(r)
		deps.Evaluation.Register(r)
	})

	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.Ping(ctx); err != nil {
				status["status"] = "degraded"
				status["database"] = err.Error()
				code = http.StatusServiceUnavailable
			}
		}
		shared.WriteJSON(w, code, status)
	}
}
