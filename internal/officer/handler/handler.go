package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"altanbank/internal/officer/models"
	dErrors "altanbank/pkg/domain-errors"
	"altanbank/pkg/platform/httputil"
)

// Store is the officer directory read access.
type Store interface {
	List(ctx context.Context) ([]*models.CentralBankOfficer, error)
}

// Handler exposes the officer directory listing.
type Handler struct {
	officers Store
	logger   *slog.Logger
}

func New(officers Store, logger *slog.Logger) *Handler {
	return &Handler{officers: officers, logger: logger}
}

// Register registers the officer routes. The router already carries the
// shared middleware chain including officer authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/officers", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	officers, err := h.officers.List(r.Context())
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list officers"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"officers": officers})
}
