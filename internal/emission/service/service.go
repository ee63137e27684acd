package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"altanbank/internal/authz"
	"altanbank/internal/emission/metrics"
	"altanbank/internal/emission/models"
	ledgermodels "altanbank/internal/ledger/models"
	licensemodels "altanbank/internal/license/models"
	"altanbank/internal/platform/config"
	policymodels "altanbank/internal/policy/models"
	"altanbank/internal/storage"
	"altanbank/pkg/domain"
	dErrors "altanbank/pkg/domain-errors"
	audit "altanbank/pkg/platform/audit"
	"altanbank/pkg/platform/idempotency"
	"altanbank/pkg/platform/sentinel"
	"altanbank/pkg/requestcontext"
)

// Store is the emission persistence the engine consumes.
type Store interface {
	// LockDay linearizes the usedToday read against concurrent mints for the
	// same UTC day. Must be called inside the unit of work, before
	// NetMintedBetween.
	LockDay(ctx context.Context, now time.Time) error
	AppendEmission(ctx context.Context, record *models.EmissionRecord) error
	AppendTransaction(ctx context.Context, tx *models.LedgerTransaction) error
	FindEmission(ctx context.Context, id domain.EmissionID) (*models.EmissionRecord, error)
	// NetMintedBetween sums COMPLETED mints minus burns over [start, end).
	NetMintedBetween(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
	Totals(ctx context.Context) (minted, burned decimal.Decimal, err error)
	ListEmissions(ctx context.Context, limit int) ([]*models.EmissionRecord, error)
	ListTransactions(ctx context.Context, limit int) ([]*models.LedgerTransaction, error)
	LastEmissionAt(ctx context.Context) (*time.Time, error)
}

// AccountStore is the slice of the correspondent ledger the engine needs.
// Credit and Debit are only ever called inside the unit of work that also
// appends the emission record.
type AccountStore interface {
	FindByID(ctx context.Context, id domain.CorrAccountID) (*ledgermodels.CorrAccount, error)
	Credit(ctx context.Context, id domain.CorrAccountID, amount decimal.Decimal) (*ledgermodels.CorrAccount, error)
	Debit(ctx context.Context, id domain.CorrAccountID, amount decimal.Decimal) (*ledgermodels.CorrAccount, error)
	TotalBalance(ctx context.Context) (decimal.Decimal, error)
}

// LicenseStore resolves the license gating an account.
type LicenseStore interface {
	FindByID(ctx context.Context, id domain.LicenseID) (*licensemodels.BankLicense, error)
}

// PolicyStore resolves the active monetary policy.
type PolicyStore interface {
	Active(ctx context.Context) (*policymodels.MonetaryPolicy, error)
}

// EmissionEngine orchestrates mint and burn: license gating, daily-cap
// validation and the atomic balance-plus-record write. The daily cap is
// system-wide and applies to net creation only; burns are uncapped.
type EmissionEngine struct {
	emissions Store
	accounts  AccountStore
	licenses  LicenseStore
	policies  PolicyStore
	tx        storage.Tx
	idem      idempotency.Store
	auditor   audit.Store
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func New(
	emissions Store,
	accounts AccountStore,
	licenses LicenseStore,
	policies PolicyStore,
	tx storage.Tx,
	idem idempotency.Store,
	auditor audit.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
) *EmissionEngine {
	return &EmissionEngine{
		emissions: emissions,
		accounts:  accounts,
		licenses:  licenses,
		policies:  policies,
		tx:        tx,
		idem:      idem,
		auditor:   auditor,
		metrics:   m,
		logger:    logger,
	}
}

// Mint creates supply: credits the account and appends the emission record
// plus its public ledger transaction in one unit of work. Fails with
// DailyLimitExceeded when the day's net creation would pass the active
// policy's cap; the message carries the remaining capacity.
func (e *EmissionEngine) Mint(ctx context.Context, accountID domain.CorrAccountID, amount decimal.Decimal, reason, memo string, officer domain.Officer) (*models.EmissionRecord, bool, error) {
	started := time.Now()
	record, replayed, err := e.emit(ctx, models.TypeMint, accountID, amount, reason, memo, officer)
	e.metrics.ObserveMintDuration(time.Since(started))
	if err != nil {
		e.metrics.IncRejection(string(dErrors.CodeOf(err)))
		return nil, false, err
	}
	if !replayed {
		e.metrics.IncMint()
	}
	return record, replayed, nil
}

// Burn destroys supply: debits the account, surfacing InsufficientFunds when
// the balance cannot cover it. Burns do not count against the daily mint
// ceiling; only net creation is capped.
func (e *EmissionEngine) Burn(ctx context.Context, accountID domain.CorrAccountID, amount decimal.Decimal, reason, memo string, officer domain.Officer) (*models.EmissionRecord, bool, error) {
	record, replayed, err := e.emit(ctx, models.TypeBurn, accountID, amount, reason, memo, officer)
	if err != nil {
		e.metrics.IncRejection(string(dErrors.CodeOf(err)))
		return nil, false, err
	}
	if !replayed {
		e.metrics.IncBurn()
	}
	return record, replayed, nil
}

func (e *EmissionEngine) emit(ctx context.Context, kind models.EmissionType, accountID domain.CorrAccountID, amount decimal.Decimal, reason, memo string, officer domain.Officer) (*models.EmissionRecord, bool, error) {
	op := authz.OpMint
	if kind == models.TypeBurn {
		op = authz.OpBurn
	}
	if err := authz.Require(officer, op); err != nil {
		return nil, false, err
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(reason) == "" {
		return nil, false, dErrors.New(dErrors.CodeInvalidInput, "reason is required")
	}
	if accountID.IsNil() {
		return nil, false, dErrors.New(dErrors.CodeBadRequest, "corr account id is required")
	}

	key := requestcontext.IdempotencyKey(ctx)
	if key != "" {
		reservation, err := e.idem.Reserve(ctx, key, config.IdempotencyKeyTTL)
		if err != nil {
			return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reserve idempotency key")
		}
		switch reservation.Outcome {
		case idempotency.Replayed:
			record, err := e.replay(ctx, reservation.RecordID)
			return record, true, err
		case idempotency.InFlight:
			return nil, false, dErrors.New(dErrors.CodeConflict, "a request with this idempotency key is in flight")
		}
	}

	record, err := e.emitInTx(ctx, kind, accountID, amount, reason, memo, officer)
	if key != "" {
		if err != nil {
			// Free the key so the caller can retry the failed operation.
			if releaseErr := e.idem.Release(ctx, key); releaseErr != nil {
				e.logger.ErrorContext(ctx, "failed to release idempotency key", "key", key, "error", releaseErr)
			}
		} else if completeErr := e.idem.Complete(ctx, key, record.ID.String(), config.IdempotencyKeyTTL); completeErr != nil {
			e.logger.ErrorContext(ctx, "failed to complete idempotency key", "key", key, "error", completeErr)
		}
	}
	if err != nil {
		return nil, false, err
	}

	e.logger.InfoContext(ctx, "emission committed",
		"emission_id", record.ID.String(),
		"type", string(kind),
		"amount", amount.String(),
		"corr_account_id", accountID.String(),
		"authorized_by", officer.ID.String(),
	)
	return record, false, nil
}

func (e *EmissionEngine) emitInTx(ctx context.Context, kind models.EmissionType, accountID domain.CorrAccountID, amount decimal.Decimal, reason, memo string, officer domain.Officer) (*models.EmissionRecord, error) {
	now := requestcontext.Now(ctx)

	var record *models.EmissionRecord
	err := e.tx.RunInTx(ctx, func(txCtx context.Context) error {
		account, err := e.accounts.FindByID(txCtx, accountID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "correspondent account not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load correspondent account")
		}

		license, err := e.licenses.FindByID(txCtx, account.LicenseID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "license not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load license")
		}
		if !license.IsActive() {
			return dErrors.Newf(dErrors.CodeLicenseNotActive, "license for bank %s is %s", license.BankCode, license.Status)
		}

		if kind == models.TypeMint {
			if err := e.checkDailyCap(txCtx, amount, now); err != nil {
				return err
			}
			if _, err := e.accounts.Credit(txCtx, accountID, amount); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit account")
			}
		} else {
			if _, err := e.accounts.Debit(txCtx, accountID, amount); err != nil {
				if errors.Is(err, sentinel.ErrInsufficientFunds) {
					return dErrors.New(dErrors.CodeInsufficientFunds, "account balance cannot cover the burn")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to debit account")
			}
		}

		record = &models.EmissionRecord{
			ID:            domain.EmissionID(uuid.New()),
			Type:          kind,
			Amount:        amount,
			Reason:        reason,
			Memo:          memo,
			CorrAccountID: accountID,
			AuthorizedBy:  officer.ID,
			Status:        models.StatusCompleted,
			CreatedAt:     now,
		}
		if err := e.emissions.AppendEmission(txCtx, record); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append emission record")
		}

		tx := &models.LedgerTransaction{
			ID:        domain.TransactionID(uuid.New()),
			Amount:    amount,
			Type:      models.TransactionType(kind),
			Status:    models.TxStatusCompleted,
			Memo:      memo,
			CreatedAt: now,
		}
		if kind == models.TypeMint {
			tx.ToBankRef = account.AccountRef
		} else {
			tx.FromBankRef = account.AccountRef
		}
		if err := e.emissions.AppendTransaction(txCtx, tx); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append ledger transaction")
		}

		action := audit.EventAltanMinted
		if kind == models.TypeBurn {
			action = audit.EventAltanBurned
		}
		if err := e.auditor.Append(txCtx, audit.Event{
			Action:        action,
			Timestamp:     now,
			OfficerID:     officer.ID,
			AggregateType: "corr_account",
			AggregateID:   accountID.String(),
			Amount:        amount.String(),
			Reference:     string(account.AccountRef),
			Reason:        reason,
			RequestID:     requestcontext.RequestID(ctx),
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record emission audit event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// checkDailyCap locks the day row, recomputes net creation for the UTC day
// and rejects a mint that would pass the active policy's limit. Runs inside
// the unit of work so the read and the subsequent insert are linearized.
func (e *EmissionEngine) checkDailyCap(ctx context.Context, amount decimal.Decimal, now time.Time) error {
	if err := e.emissions.LockDay(ctx, now); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock emission day")
	}

	policy, err := e.policies.Active(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no monetary policy has been set")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load active policy")
	}

	start, end := models.DayWindow(now)
	used, err := e.emissions.NetMintedBetween(ctx, start, end)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute daily emission")
	}

	if used.Add(amount).GreaterThan(policy.DailyEmissionLimit) {
		remaining := policy.DailyEmissionLimit.Sub(used)
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		return dErrors.Newf(dErrors.CodeDailyLimitExceeded,
			"daily emission limit exceeded: %s remaining today", remaining.String())
	}
	return nil
}

func (e *EmissionEngine) replay(ctx context.Context, recordID string) (*models.EmissionRecord, error) {
	id, err := domain.ParseEmissionID(recordID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "idempotency key resolved to a malformed record id")
	}
	record, err := e.emissions.FindEmission(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load replayed emission record")
	}
	return record, nil
}

// GetSupply returns the derived supply aggregate. Circulating is the live
// sum of account balances, recomputed on every call. Both aggregates are
// read inside one unit of work so a mint committing between them cannot
// produce a reply where circulating != minted - burned.
func (e *EmissionEngine) GetSupply(ctx context.Context) (*models.Supply, error) {
	var supply models.Supply
	err := e.tx.RunInTx(ctx, func(txCtx context.Context) error {
		minted, burned, err := e.emissions.Totals(txCtx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load emission totals")
		}
		circulating, err := e.accounts.TotalBalance(txCtx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to sum account balances")
		}
		supply = models.Supply{Minted: minted, Burned: burned, Circulating: circulating}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &supply, nil
}

// GetDailyEmission reports the current UTC day's net creation against the
// active cap.
func (e *EmissionEngine) GetDailyEmission(ctx context.Context) (*models.DailyEmission, error) {
	policy, err := e.policies.Active(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no monetary policy has been set")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load active policy")
	}

	start, end := models.DayWindow(requestcontext.Now(ctx))
	used, err := e.emissions.NetMintedBetween(ctx, start, end)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute daily emission")
	}

	remaining := policy.DailyEmissionLimit.Sub(used)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return &models.DailyEmission{Used: used, Limit: policy.DailyEmissionLimit, Remaining: remaining}, nil
}

// GetEmissionHistory returns emission records newest first. A non-positive
// limit falls back to 50.
func (e *EmissionEngine) GetEmissionHistory(ctx context.Context, limit int) ([]*models.EmissionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	records, err := e.emissions.ListEmissions(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list emission records")
	}
	return records, nil
}

// GetTransactionHistory returns public ledger transactions newest first.
func (e *EmissionEngine) GetTransactionHistory(ctx context.Context, limit int) ([]*models.LedgerTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	transactions, err := e.emissions.ListTransactions(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list ledger transactions")
	}
	return transactions, nil
}

// LastEmissionAt returns the time of the most recent emission, or nil.
func (e *EmissionEngine) LastEmissionAt(ctx context.Context) (*time.Time, error) {
	last, err := e.emissions.LastEmissionAt(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load last emission time")
	}
	return last, nil
}
