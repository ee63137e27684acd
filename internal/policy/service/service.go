package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"altanbank/internal/authz"
	"altanbank/internal/policy/models"
	"altanbank/internal/storage"
	"altanbank/pkg/domain"
	dErrors "altanbank/pkg/domain-errors"
	audit "altanbank/pkg/platform/audit"
	"altanbank/pkg/platform/sentinel"
	"altanbank/pkg/requestcontext"
)

// Store is the policy persistence the service consumes.
type Store interface {
	// Active returns the single active policy; sentinel.ErrNotFound before
	// genesis bootstrap.
	Active(ctx context.Context) (*models.MonetaryPolicy, error)
	// Supersede deactivates the active row and inserts next plus its change
	// entries in one atomic step.
	Supersede(ctx context.Context, next *models.MonetaryPolicy, changes []models.PolicyChange) error
	// History lists change entries, newest first.
	History(ctx context.Context, limit int) ([]models.PolicyChange, error)
}

// PolicyService versions the monetary-policy parameters. Emission validation
// reads the active policy through this service on every call; there is no
// caching layer that could serve a stale limit.
type PolicyService struct {
	policies Store
	tx       storage.Tx
	auditor  audit.Store
	logger   *slog.Logger
}

func New(policies Store, tx storage.Tx, auditor audit.Store, logger *slog.Logger) *PolicyService {
	return &PolicyService{policies: policies, tx: tx, auditor: auditor, logger: logger}
}

// GetActivePolicy returns the currently effective policy.
func (s *PolicyService) GetActivePolicy(ctx context.Context) (*models.MonetaryPolicy, error) {
	policy, err := s.policies.Active(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no monetary policy has been set")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load active policy")
	}
	return policy, nil
}

// UpdatePolicy atomically supersedes the active policy. Unspecified fields
// carry over from the previous version; one change entry is appended per
// changed parameter. Subsequent emission validations see the new limit
// immediately.
func (s *PolicyService) UpdatePolicy(ctx context.Context, update models.PolicyUpdate, reason string, officer domain.Officer) (*models.MonetaryPolicy, error) {
	if err := authz.Require(officer, authz.OpUpdatePolicy); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "reason is required")
	}
	if update.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "at least one parameter must be provided")
	}
	if err := update.Validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)

	var next *models.MonetaryPolicy
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		prev, err := s.policies.Active(txCtx)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "no monetary policy has been set")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load active policy")
		}

		candidate, changes := update.Successor(prev, officer.ID, reason, now)
		if len(changes) == 0 {
			return dErrors.New(dErrors.CodeInvalidInput, "update does not change any parameter")
		}

		if err := s.policies.Supersede(txCtx, candidate, changes); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to supersede policy")
		}

		if err := s.auditor.Append(txCtx, audit.Event{
			Action:        audit.EventPolicyUpdated,
			Timestamp:     now,
			OfficerID:     officer.ID,
			AggregateType: "policy",
			AggregateID:   candidate.ID.String(),
			Reason:        reason,
			RequestID:     requestcontext.RequestID(ctx),
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record policy audit event")
		}

		next = candidate
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "monetary policy updated",
		"policy_id", next.ID.String(),
		"authorized_by", officer.ID.String(),
	)
	return next, nil
}

// GetPolicyHistory returns change entries newest first. A non-positive limit
// falls back to 50.
func (s *PolicyService) GetPolicyHistory(ctx context.Context, limit int) ([]models.PolicyChange, error) {
	if limit <= 0 {
		limit = 50
	}
	history, err := s.policies.History(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load policy history")
	}
	return history, nil
}
