package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	emissionmodels "altanbank/internal/emission/models"
	"altanbank/pkg/domain"
	dErrors "altanbank/pkg/domain-errors"
	"altanbank/pkg/platform/httputil"
	"altanbank/pkg/requestcontext"
)

// Service defines the interface for interbank transfer operations.
type Service interface {
	Transfer(ctx context.Context, from, to domain.CorrAccountID, amount decimal.Decimal, purpose string, officer domain.Officer) (*emissionmodels.LedgerTransaction, bool, error)
}

// Handler handles interbank transfer endpoints.
type Handler struct {
	transfers Service
	logger    *slog.Logger
}

func New(transfers Service, logger *slog.Logger) *Handler {
	return &Handler{transfers: transfers, logger: logger}
}

// Register registers the transfer routes. The router already carries the
// shared middleware chain including officer authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/transfers", h.handleTransfer)
}

type transferRequest struct {
	FromCorrAccountID string `json:"from_corr_account_id"`
	ToCorrAccountID   string `json:"to_corr_account_id"`
	Amount            string `json:"amount"`
	Purpose           string `json:"purpose"`
}

func (h *Handler) handleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	officer, ok := requestcontext.Officer(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "officer identity missing"))
		return
	}

	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	from, err := domain.ParseCorrAccountID(req.FromCorrAccountID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	to, err := domain.ParseCorrAccountID(req.ToCorrAccountID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	tx, replayed, err := h.transfers.Transfer(ctx, from, to, amount, req.Purpose, officer)
	if err != nil {
		h.logger.WarnContext(ctx, "transfer rejected",
			"request_id", requestcontext.RequestID(ctx),
			"from", from.String(),
			"to", to.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, tx)
}
