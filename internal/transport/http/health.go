package httptransport

import (
	"database/sql"
	"net/http"

	platformredis "altanbank/internal/platform/redis"
	"altanbank/pkg/platform/httputil"
)

// HealthHandler reports readiness of the engine's dependencies.
type HealthHandler struct {
	db    *sql.DB
	cache *platformredis.Client
}

func NewHealthHandler(db *sql.DB, cache *platformredis.Client) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

func (h *HealthHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := map[string]string{}
	healthy := true

	checks["database"] = h.check(func() error {
		if h.db == nil {
			return nil
		}
		return h.db.PingContext(ctx)
	}, &healthy)

	if h.cache != nil {
		checks["redis"] = h.check(func() error { return h.cache.Health(ctx) }, &healthy)
	}

	status := http.StatusOK
	state := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	httputil.WriteJSON(w, status, map[string]any{"status": state, "checks": checks})
}

func (h *HealthHandler) check(fn func() error, healthy *bool) string {
	if err := fn(); err != nil {
		*healthy = false
		return err.Error()
	}
	return "ok"
}
