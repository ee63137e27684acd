package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"altanbank/internal/policy/models"
	"altanbank/pkg/domain"
	dErrors "altanbank/pkg/domain-errors"
	"altanbank/pkg/platform/httputil"
	"altanbank/pkg/requestcontext"
)

// Service defines the interface for policy operations.
type Service interface {
	GetActivePolicy(ctx context.Context) (*models.MonetaryPolicy, error)
	UpdatePolicy(ctx context.Context, update models.PolicyUpdate, reason string, officer domain.Officer) (*models.MonetaryPolicy, error)
	GetPolicyHistory(ctx context.Context, limit int) ([]models.PolicyChange, error)
}

// Handler handles monetary policy endpoints.
type Handler struct {
	policy Service
	logger *slog.Logger
}

func New(policy Service, logger *slog.Logger) *Handler {
	return &Handler{policy: policy, logger: logger}
}

// Register registers the policy routes. The router already carries the shared
// middleware chain including officer authentication.
func (h *Handler) Register(r chi.Router) {
	r.Get("/policy", h.handleGetPolicy)
	r.Post("/policy", h.handleUpdatePolicy)
	r.Get("/policy/history", h.handleGetHistory)
}

func (h *Handler) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.policy.GetActivePolicy(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, policy)
}

type updatePolicyRequest struct {
	OfficialRate       *string `json:"official_rate"`
	ReserveRequirement *string `json:"reserve_requirement"`
	DailyEmissionLimit *string `json:"daily_emission_limit"`
	Reason             string  `json:"reason"`
}

func (h *Handler) handleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	officer, ok := requestcontext.Officer(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "officer identity missing"))
		return
	}

	var req updatePolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	update, err := parseUpdate(req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	policy, err := h.policy.UpdatePolicy(ctx, update, req.Reason, officer)
	if err != nil {
		h.logger.WarnContext(ctx, "policy update rejected",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, policy)
}

func (h *Handler) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.policy.GetPolicyHistory(r.Context(), httputil.LimitParam(r, 50))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"changes": history})
}

func parseUpdate(req updatePolicyRequest) (models.PolicyUpdate, error) {
	var update models.PolicyUpdate
	var err error
	if update.OfficialRate, err = parseField(req.OfficialRate, "official_rate"); err != nil {
		return models.PolicyUpdate{}, err
	}
	if update.ReserveRequirement, err = parseField(req.ReserveRequirement, "reserve_requirement"); err != nil {
		return models.PolicyUpdate{}, err
	}
	if update.DailyEmissionLimit, err = parseField(req.DailyEmissionLimit, "daily_emission_limit"); err != nil {
		return models.PolicyUpdate{}, err
	}
	return update, nil
}

func parseField(raw *string, name string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	value, err := decimal.NewFromString(*raw)
	if err != nil {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "%s must be a decimal string", name)
	}
	return &value, nil
}
