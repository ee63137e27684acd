package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	ledgermodels "altanbank/internal/ledger/models"
	"altanbank/internal/license/models"
	"altanbank/pkg/domain"
	dErrors "altanbank/pkg/domain-errors"
	"altanbank/pkg/platform/httputil"
	"altanbank/pkg/requestcontext"
)

// Service defines the interface for license registry operations.
type Service interface {
	IssueLicense(ctx context.Context, bankAddress, bankCode, bankName string, officer domain.Officer) (*models.BankLicense, *ledgermodels.CorrAccount, error)
	SuspendLicense(ctx context.Context, id domain.LicenseID, officer domain.Officer) (*models.BankLicense, error)
	ReactivateLicense(ctx context.Context, id domain.LicenseID, officer domain.Officer) (*models.BankLicense, error)
	RevokeLicense(ctx context.Context, id domain.LicenseID, reason string, officer domain.Officer) (*models.BankLicense, error)
	GetLicense(ctx context.Context, id domain.LicenseID) (*models.BankLicense, error)
	ListLicensedBanks(ctx context.Context) ([]*models.BankLicense, error)
}

// Handler handles license registry endpoints.
type Handler struct {
	licenses Service
	logger   *slog.Logger
}

func New(licenses Service, logger *slog.Logger) *Handler {
	return &Handler{licenses: licenses, logger: logger}
}

// Register registers the license routes. The router already carries the
// shared middleware chain including officer authentication.
func (h *Handler) Register(r chi.Router) {
	r.Post("/licenses", h.handleIssue)
	r.Get("/licenses", h.handleList)
	r.Get("/licenses/{licenseID}", h.handleGet)
	r.Post("/licenses/{licenseID}/suspend", h.handleSuspend)
	r.Post("/licenses/{licenseID}/reactivate", h.handleReactivate)
	r.Post("/licenses/{licenseID}/revoke", h.handleRevoke)
}

type issueLicenseRequest struct {
	BankAddress string `json:"bank_address"`
	BankCode    string `json:"bank_code"`
	BankName    string `json:"bank_name"`
}

type issueLicenseResponse struct {
	License *models.BankLicense       `json:"license"`
	Account *ledgermodels.CorrAccount `json:"account"`
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	officer, ok := requestcontext.Officer(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "officer identity missing"))
		return
	}

	var req issueLicenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	license, account, err := h.licenses.IssueLicense(ctx, req.BankAddress, req.BankCode, req.BankName, officer)
	if err != nil {
		h.logger.WarnContext(ctx, "license issuance rejected",
			"request_id", requestcontext.RequestID(ctx),
			"bank_code", req.BankCode,
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, issueLicenseResponse{License: license, Account: account})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	licenses, err := h.licenses.ListLicensedBanks(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"licenses": licenses})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseLicenseID(chi.URLParam(r, "licenseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	license, err := h.licenses.GetLicense(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, license)
}

func (h *Handler) handleSuspend(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, id domain.LicenseID, officer domain.Officer) (*models.BankLicense, error) {
		return h.licenses.SuspendLicense(ctx, id, officer)
	})
}

func (h *Handler) handleReactivate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, id domain.LicenseID, officer domain.Officer) (*models.BankLicense, error) {
		return h.licenses.ReactivateLicense(ctx, id, officer)
	})
}

type revokeLicenseRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	officer, ok := requestcontext.Officer(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "officer identity missing"))
		return
	}
	id, err := domain.ParseLicenseID(chi.URLParam(r, "licenseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req revokeLicenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	license, err := h.licenses.RevokeLicense(ctx, id, req.Reason, officer)
	if err != nil {
		h.logger.WarnContext(ctx, "license revocation rejected",
			"request_id", requestcontext.RequestID(ctx),
			"license_id", id.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, license)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, domain.LicenseID, domain.Officer) (*models.BankLicense, error)) {
	ctx := r.Context()

	officer, ok := requestcontext.Officer(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "officer identity missing"))
		return
	}
	id, err := domain.ParseLicenseID(chi.URLParam(r, "licenseID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	license, err := op(ctx, id, officer)
	if err != nil {
		h.logger.WarnContext(ctx, "license transition rejected",
			"request_id", requestcontext.RequestID(ctx),
			"license_id", id.String(),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, license)
}
