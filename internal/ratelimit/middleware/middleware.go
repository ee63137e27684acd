// Package middleware throttles mutating engine calls per officer. Reads are
// never limited, and a broken limiter store fails open so the gateway's
// availability does not hinge on Redis.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"altanbank/internal/ratelimit/models"
	dErrors "altanbank/pkg/domain-errors"
	"altanbank/pkg/platform/httputil"
	"altanbank/pkg/requestcontext"
)

const (
	defaultLimit  = 60
	defaultWindow = time.Minute
)

// Store is the counting backend.
type Store interface {
	Allow(ctx context.Context, key string, limit int, duration time.Duration) (*models.Result, error)
}

type Middleware struct {
	store  Store
	logger *slog.Logger
	limit  int
	window time.Duration
}

type Option func(*Middleware)

// WithLimit overrides the per-officer budget per window.
func WithLimit(limit int, window time.Duration) Option {
	return func(m *Middleware) {
		m.limit = limit
		m.window = window
	}
}

func New(store Store, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:  store,
		logger: logger,
		limit:  defaultLimit,
		window: defaultWindow,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LimitMutations throttles non-GET requests per authenticated officer. Must
// run after the officer auth middleware.
func (m *Middleware) LimitMutations(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		officer, ok := requestcontext.Officer(ctx)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		key := string(models.ClassMutation) + ":" + officer.ID.String()
		result, err := m.store.Allow(ctx, key, m.limit, m.window)
		if err != nil {
			m.logger.ErrorContext(ctx, "rate limit check failed, allowing request",
				"officer_id", officer.ID.String(),
				"error", err,
			)
			next.ServeHTTP(w, r)
			return
		}

		setHeaders(w, result)
		if !result.Allowed {
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
			httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "rate limit exceeded, slow down"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func setHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
