package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"altanbank/internal/emission/models"
	"altanbank/pkg/domain"
	dErrors "altanbank/pkg/domain-errors"
	"altanbank/pkg/platform/httputil"
	"altanbank/pkg/requestcontext"
)

// Service defines the interface for emission engine operations.
type Service interface {
	Mint(ctx context.Context, accountID domain.CorrAccountID, amount decimal.Decimal, reason, memo string, officer domain.Officer) (*models.EmissionRecord, bool, error)
	Burn(ctx context.Context, accountID domain.CorrAccountID, amount decimal.Decimal, reason, memo string, officer domain.Officer) (*models.EmissionRecord, bool, error)
	GetSupply(ctx context.Context) (*models.Supply, error)
	GetDailyEmission(ctx context.Context) (*models.DailyEmission, error)
	GetEmissionHistory(ctx context.Context, limit int) ([]*models.EmissionRecord, error)
	GetTransactionHistory(ctx context.Context, limit int) ([]*models.LedgerTransaction, error)
	LastEmissionAt(ctx context.Context) (*time.Time, error)
}

// Handler handles emission engine endpoints.
type Handler struct {
	emissions Service
	logger    *slog.Logger
}

func New(emissions Service, logger *slog.Logger) *Handler {
	return &Handler{emissions: emissions, logger: logger}
}

// Register registers the emission routes. The router already carries the
// shared middleware chain including officer authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/emissions/mint", h.handleMint)
	r.Post("/emissions/burn", h.handleBurn)
	r.Get("/emissions", h.handleHistory)
	r.Get("/emissions/daily", h.handleDaily)
	r.Get("/supply", h.handleSupply)
	r.Get("/transactions", h.handleTransactions)
}

type emissionRequest struct {
	CorrAccountID string `json:"corr_account_id"`
	Amount        string `json:"amount"`
	Reason        string `json:"reason"`
	Memo          string `json:"memo,omitempty"`
}

func (h *Handler) handleMint(w http.ResponseWriter, r *http.Request) {
	h.emit(w, r, h.emissions.Mint)
}

func (h *Handler) handleBurn(w http.ResponseWriter, r *http.Request) {
	h.emit(w, r, h.emissions.Burn)
}

func (h *Handler) emit(w http.ResponseWriter, r *http.Request, op func(context.Context, domain.CorrAccountID, decimal.Decimal, string, string, domain.Officer) (*models.EmissionRecord, bool, error)) {
	ctx := r.Context()

	officer, ok := requestcontext.Officer(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "officer identity missing"))
		return
	}

	var req emissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	accountID, err := domain.ParseCorrAccountID(req.CorrAccountID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, replayed, err := op(ctx, accountID, amount, req.Reason, req.Memo, officer)
	if err != nil {
		h.logger.WarnContext(ctx, "emission rejected",
			"request_id", requestcontext.RequestID(ctx),
			"corr_account_id", accountID.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}

	// A replayed idempotency key returns the original record with 200.
	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, record)
}

func (h *Handler) handleSupply(w http.ResponseWriter, r *http.Request) {
	supply, err := h.emissions.GetSupply(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, supply)
}

func (h *Handler) handleDaily(w http.ResponseWriter, r *http.Request) {
	daily, err := h.emissions.GetDailyEmission(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, daily)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.emissions.GetEmissionHistory(r.Context(), httputil.LimitParam(r, 50))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"emissions": records})
}

func (h *Handler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, err := h.emissions.GetTransactionHistory(r.Context(), httputil.LimitParam(r, 50))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"transactions": transactions})
}
