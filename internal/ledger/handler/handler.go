package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"altanbank/internal/ledger/models"
	dErrors "altanbank/pkg/domain-errors"
	"altanbank/pkg/platform/httputil"
)

// Store is the account read access the handler consumes. Balances are
// read-only at this surface; mutation goes through the engines.
type Store interface {
	List(ctx context.Context) ([]*models.CorrAccount, error)
}

// Handler exposes the correspondent account listing.
type Handler struct {
	accounts Store
	logger   *slog.Logger
}

func New(accounts Store, logger *slog.Logger) *Handler {
	return &Handler{accounts: accounts, logger: logger}
}

// Register registers the account routes. The router already carries the
// shared middleware chain including officer authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/accounts", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list accounts"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}
