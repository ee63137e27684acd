package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"altanbank/internal/ratelimit/store"
	"altanbank/pkg/domain"
	"altanbank/pkg/requestcontext"
)

func newMiddleware(t *testing.T, limit int) *Middleware {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store.NewMemory(), logger, WithLimit(limit, time.Minute))
}

func doRequest(m *Middleware, method string, officer *domain.Officer) *httptest.ResponseRecorder {
	handler := m.LimitMutations(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(method, "/emissions/mint", nil)
	if officer != nil {
		req = req.WithContext(requestcontext.WithOfficer(req.Context(), *officer))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestMutationsThrottledPerOfficer(t *testing.T) {
	m := newMiddleware(t, 3)
	officer := domain.Officer{ID: domain.OfficerID(uuid.New()), Role: domain.RoleGovernor}

	for i := 0; i < 3; i++ {
		rec := doRequest(m, http.MethodPost, &officer)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doRequest(m, http.MethodPost, &officer)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestBudgetIsPerOfficer(t *testing.T) {
	m := newMiddleware(t, 1)
	first := domain.Officer{ID: domain.OfficerID(uuid.New()), Role: domain.RoleGovernor}
	second := domain.Officer{ID: domain.OfficerID(uuid.New()), Role: domain.RoleGovernor}

	require.Equal(t, http.StatusOK, doRequest(m, http.MethodPost, &first).Code)
	assert.Equal(t, http.StatusTooManyRequests, doRequest(m, http.MethodPost, &first).Code)
	assert.Equal(t, http.StatusOK, doRequest(m, http.MethodPost, &second).Code,
		"one officer's burst must not starve another")
}

func TestReadsAreNeverLimited(t *testing.T) {
	m := newMiddleware(t, 1)
	officer := domain.Officer{ID: domain.OfficerID(uuid.New()), Role: domain.RoleGovernor}

	require.Equal(t, http.StatusOK, doRequest(m, http.MethodPost, &officer).Code)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, doRequest(m, http.MethodGet, &officer).Code)
	}
}

func TestUnauthenticatedRequestsPassThrough(t *testing.T) {
	// Auth runs before this middleware; a missing officer means an open
	// route, which is not ours to throttle.
	m := newMiddleware(t, 1)
	assert.Equal(t, http.StatusOK, doRequest(m, http.MethodPost, nil).Code)
	assert.Equal(t, http.StatusOK, doRequest(m, http.MethodPost, nil).Code)
}
