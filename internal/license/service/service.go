package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"altanbank/internal/authz"
	ledgermodels "altanbank/internal/ledger/models"
	"altanbank/internal/license/metrics"
	"altanbank/internal/license/models"
	"altanbank/internal/storage"
	"altanbank/pkg/domain"
	dErrors "altanbank/pkg/domain-errors"
	audit "altanbank/pkg/platform/audit"
	"altanbank/pkg/platform/sentinel"
	"altanbank/pkg/requestcontext"
)

// Store is the license persistence the service consumes.
type Store interface {
	// CreateIfCodeAvailable inserts the license, returning
	// sentinel.ErrConflict when a non-revoked license already holds the
	// bank code.
	CreateIfCodeAvailable(ctx context.Context, license *models.BankLicense) error
	FindByID(ctx context.Context, id domain.LicenseID) (*models.BankLicense, error)
	List(ctx context.Context) ([]*models.BankLicense, error)
	// Execute loads the license, runs validate then mutate under a lock
	// held for the duration of both, and persists the result.
	Execute(ctx context.Context, id domain.LicenseID, validate func(*models.BankLicense) error, mutate func(*models.BankLicense)) (*models.BankLicense, error)
}

// AccountStore is the slice of the correspondent ledger the registry needs:
// account creation at issuance time.
type AccountStore interface {
	Create(ctx context.Context, account *ledgermodels.CorrAccount) error
}

// LicenseService manages the bank license lifecycle. Issuance creates the
// license and its correspondent account in one unit of work; revocation is
// terminal and never zeroes the account balance.
type LicenseService struct {
	licenses Store
	accounts AccountStore
	tx       storage.Tx
	auditor  audit.Store
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(licenses Store, accounts AccountStore, tx storage.Tx, auditor audit.Store, m *metrics.Metrics, logger *slog.Logger) *LicenseService {
	return &LicenseService{
		licenses: licenses,
		accounts: accounts,
		tx:       tx,
		auditor:  auditor,
		metrics:  m,
		logger:   logger,
	}
}

// IssueLicense creates an ACTIVE license and its zero-balance correspondent
// account atomically. The bank code must not be held by any non-revoked
// license; concurrent issuance of the same code yields exactly one winner.
func (s *LicenseService) IssueLicense(ctx context.Context, bankAddress, bankCode, bankName string, officer domain.Officer) (*models.BankLicense, *ledgermodels.CorrAccount, error) {
	if err := authz.Require(officer, authz.OpIssueLicense); err != nil {
		return nil, nil, err
	}

	now := requestcontext.Now(ctx)
	license, err := models.NewBankLicense(domain.LicenseID(uuid.New()), bankAddress, bankCode, bankName, officer.ID, now)
	if err != nil {
		return nil, nil, err
	}

	account := &ledgermodels.CorrAccount{
		ID:         domain.CorrAccountID(uuid.New()),
		LicenseID:  license.ID,
		AccountRef: domain.NewAccountRef(license.BankCode, license.ID),
		Balance:    decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.licenses.CreateIfCodeAvailable(txCtx, license); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Newf(dErrors.CodeConflict, "bank code %s is already licensed", license.BankCode)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create license")
		}
		if err := s.accounts.Create(txCtx, account); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create correspondent account")
		}
		if err := s.auditor.Append(txCtx, audit.Event{
			Action:        audit.EventLicenseIssued,
			Timestamp:     now,
			OfficerID:     officer.ID,
			AggregateType: "license",
			AggregateID:   license.ID.String(),
			Reference:     string(account.AccountRef),
			RequestID:     requestcontext.RequestID(ctx),
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record license audit event")
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.metrics.IncIssued()
	s.logger.InfoContext(ctx, "bank license issued",
		"license_id", license.ID.String(),
		"bank_code", license.BankCode,
		"account_ref", string(account.AccountRef),
		"issued_by", officer.ID.String(),
	)
	return license, account, nil
}

// SuspendLicense moves an ACTIVE license to SUSPENDED. Suspended banks keep
// their balance but are blocked from emissions and transfers.
func (s *LicenseService) SuspendLicense(ctx context.Context, id domain.LicenseID, officer domain.Officer) (*models.BankLicense, error) {
	if err := authz.Require(officer, authz.OpSuspendLicense); err != nil {
		return nil, err
	}
	license, err := s.transition(ctx, id, officer, audit.EventLicenseSuspended, "",
		(*models.BankLicense).CanSuspend,
		func(l *models.BankLicense) { l.ApplySuspension() },
	)
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition("suspend")
	s.logger.InfoContext(ctx, "bank license suspended", "license_id", id.String(), "officer_id", officer.ID.String())
	return license, nil
}

// ReactivateLicense moves a SUSPENDED license back to ACTIVE.
func (s *LicenseService) ReactivateLicense(ctx context.Context, id domain.LicenseID, officer domain.Officer) (*models.BankLicense, error) {
	if err := authz.Require(officer, authz.OpReactivateLicense); err != nil {
		return nil, err
	}
	license, err := s.transition(ctx, id, officer, audit.EventLicenseReactivated, "",
		(*models.BankLicense).CanReactivate,
		func(l *models.BankLicense) { l.ApplyReactivation() },
	)
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition("reactivate")
	s.logger.InfoContext(ctx, "bank license reactivated", "license_id", id.String(), "officer_id", officer.ID.String())
	return license, nil
}

// RevokeLicense terminally revokes a license. The correspondent account and
// its balance survive for audit; only the status changes.
func (s *LicenseService) RevokeLicense(ctx context.Context, id domain.LicenseID, reason string, officer domain.Officer) (*models.BankLicense, error) {
	if err := authz.Require(officer, authz.OpRevokeLicense); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "reason is required")
	}

	now := requestcontext.Now(ctx)
	license, err := s.transition(ctx, id, officer, audit.EventLicenseRevoked, reason,
		(*models.BankLicense).CanRevoke,
		func(l *models.BankLicense) { l.ApplyRevocation(reason, now) },
	)
	if err != nil {
		return nil, err
	}
	s.metrics.IncTransition("revoke")
	s.logger.InfoContext(ctx, "bank license revoked", "license_id", id.String(), "officer_id", officer.ID.String())
	return license, nil
}

// GetLicense returns a license by id.
func (s *LicenseService) GetLicense(ctx context.Context, id domain.LicenseID) (*models.BankLicense, error) {
	license, err := s.licenses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "license not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load license")
	}
	return license, nil
}

// ListLicensedBanks returns all licenses, oldest first.
func (s *LicenseService) ListLicensedBanks(ctx context.Context) ([]*models.BankLicense, error) {
	licenses, err := s.licenses.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list licenses")
	}
	return licenses, nil
}

func (s *LicenseService) transition(
	ctx context.Context,
	id domain.LicenseID,
	officer domain.Officer,
	action audit.AuditEvent,
	reason string,
	validate func(*models.BankLicense) error,
	mutate func(*models.BankLicense),
) (*models.BankLicense, error) {
	now := requestcontext.Now(ctx)

	var license *models.BankLicense
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		updated, err := s.licenses.Execute(txCtx, id, validate, mutate)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "license not found")
			}
			if dErrors.CodeOf(err) != dErrors.CodeInternal {
				return err
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update license")
		}

		if err := s.auditor.Append(txCtx, audit.Event{
			Action:        action,
			Timestamp:     now,
			OfficerID:     officer.ID,
			AggregateType: "license",
			AggregateID:   id.String(),
			Reason:        reason,
			RequestID:     requestcontext.RequestID(ctx),
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record license audit event")
		}

		license = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return license, nil
}
