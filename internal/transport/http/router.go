// Package httptransport assembles the HTTP surface: the shared middleware
// chain, the authenticated engine routes and the public read endpoints.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"altanbank/internal/platform/middleware"
	ratelimitmw "altanbank/internal/ratelimit/middleware"
)

// Registrar is implemented by every module handler.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires the full HTTP surface. Authenticated engine routes sit
// behind the officer auth middleware; /public/stats, /healthz and /metrics
// stay open.
func NewRouter(
	logger *slog.Logger,
	validator middleware.TokenValidator,
	stats *StatsHandler,
	health *HealthHandler,
	limiter *ratelimitmw.Middleware,
	handlers ...Registrar,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", health.handleHealth)
	r.Get("/public/stats", stats.handleStats)

	r.Group(func(auth chi.Router) {
		auth.Use(middleware.RequireOfficer(validator, logger))
		auth.Use(middleware.IdempotencyKey)
		if limiter != nil {
			auth.Use(limiter.LimitMutations)
		}
		for _, h := range handlers {
			h.Register(auth)
		}
	})

	return r
}
