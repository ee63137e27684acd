package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"altanbank/internal/authz"
	emissionmodels "altanbank/internal/emission/models"
	ledgermodels "altanbank/internal/ledger/models"
	licensemodels "altanbank/internal/license/models"
	"altanbank/internal/platform/config"
	"altanbank/internal/storage"
	"altanbank/internal/transfer/metrics"
	"altanbank/pkg/domain"
	dErrors "altanbank/pkg/domain-errors"
	audit "altanbank/pkg/platform/audit"
	"altanbank/pkg/platform/idempotency"
	"altanbank/pkg/platform/sentinel"
	"altanbank/pkg/requestcontext"
)

// AccountStore is the slice of the correspondent ledger the engine needs.
type AccountStore interface {
	FindByID(ctx context.Context, id domain.CorrAccountID) (*ledgermodels.CorrAccount, error)
	Credit(ctx context.Context, id domain.CorrAccountID, amount decimal.Decimal) (*ledgermodels.CorrAccount, error)
	Debit(ctx context.Context, id domain.CorrAccountID, amount decimal.Decimal) (*ledgermodels.CorrAccount, error)
}

// LicenseStore resolves the licenses gating both sides of a transfer.
type LicenseStore interface {
	FindByID(ctx context.Context, id domain.LicenseID) (*licensemodels.BankLicense, error)
}

// TransactionStore appends the public transaction record.
type TransactionStore interface {
	AppendTransaction(ctx context.Context, tx *emissionmodels.LedgerTransaction) error
	FindTransaction(ctx context.Context, id domain.TransactionID) (*emissionmodels.LedgerTransaction, error)
}

// TransferEngine moves balance between two correspondent accounts. Supply is
// unchanged: no emission record is created, only one TRANSFER transaction.
// This is a deliberately separate code path from mint and burn so a transfer
// can never touch the conservation invariant.
type TransferEngine struct {
	accounts     AccountStore
	licenses     LicenseStore
	transactions TransactionStore
	tx           storage.Tx
	idem         idempotency.Store
	auditor      audit.Store
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

func New(
	accounts AccountStore,
	licenses LicenseStore,
	transactions TransactionStore,
	tx storage.Tx,
	idem idempotency.Store,
	auditor audit.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
) *TransferEngine {
	return &TransferEngine{
		accounts:     accounts,
		licenses:     licenses,
		transactions: transactions,
		tx:           tx,
		idem:         idem,
		auditor:      auditor,
		metrics:      m,
		logger:       logger,
	}
}

// Transfer atomically debits the source and credits the destination, then
// appends one TRANSFER transaction referencing both account refs. Both
// licenses must be ACTIVE.
func (e *TransferEngine) Transfer(ctx context.Context, from, to domain.CorrAccountID, amount decimal.Decimal, purpose string, officer domain.Officer) (*emissionmodels.LedgerTransaction, bool, error) {
	started := time.Now()
	tx, replayed, err := e.transfer(ctx, from, to, amount, purpose, officer)
	e.metrics.ObserveTransferDuration(time.Since(started))
	if err != nil {
		e.metrics.IncRejection(string(dErrors.CodeOf(err)))
		return nil, false, err
	}
	if !replayed {
		e.metrics.IncTransfer()
	}
	return tx, replayed, nil
}

func (e *TransferEngine) transfer(ctx context.Context, from, to domain.CorrAccountID, amount decimal.Decimal, purpose string, officer domain.Officer) (*emissionmodels.LedgerTransaction, bool, error) {
	if err := authz.Require(officer, authz.OpTransfer); err != nil {
		return nil, false, err
	}
	if err := domain.ValidateAmount(amount); err != nil {
		return nil, false, err
	}
	if from.IsNil() || to.IsNil() {
		return nil, false, dErrors.New(dErrors.CodeBadRequest, "both account ids are required")
	}
	if from == to {
		return nil, false, dErrors.New(dErrors.CodeInvalidInput, "cannot transfer to the same account")
	}

	key := requestcontext.IdempotencyKey(ctx)
	if key != "" {
		reservation, err := e.idem.Reserve(ctx, key, config.IdempotencyKeyTTL)
		if err != nil {
			return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reserve idempotency key")
		}
		switch reservation.Outcome {
		case idempotency.Replayed:
			tx, err := e.replay(ctx, reservation.RecordID)
			return tx, true, err
		case idempotency.InFlight:
			return nil, false, dErrors.New(dErrors.CodeConflict, "a request with this idempotency key is in flight")
		}
	}

	tx, err := e.transferInTx(ctx, from, to, amount, purpose, officer)
	if key != "" {
		if err != nil {
			if releaseErr := e.idem.Release(ctx, key); releaseErr != nil {
				e.logger.ErrorContext(ctx, "failed to release idempotency key", "key", key, "error", releaseErr)
			}
		} else if completeErr := e.idem.Complete(ctx, key, tx.ID.String(), config.IdempotencyKeyTTL); completeErr != nil {
			e.logger.ErrorContext(ctx, "failed to complete idempotency key", "key", key, "error", completeErr)
		}
	}
	if err != nil {
		return nil, false, err
	}

	e.logger.InfoContext(ctx, "interbank transfer committed",
		"transaction_id", tx.ID.String(),
		"amount", amount.String(),
		"from", from.String(),
		"to", to.String(),
		"authorized_by", officer.ID.String(),
	)
	return tx, false, nil
}

func (e *TransferEngine) transferInTx(ctx context.Context, from, to domain.CorrAccountID, amount decimal.Decimal, purpose string, officer domain.Officer) (*emissionmodels.LedgerTransaction, error) {
	now := requestcontext.Now(ctx)

	var tx *emissionmodels.LedgerTransaction
	err := e.tx.RunInTx(ctx, func(txCtx context.Context) error {
		source, err := e.loadGatedAccount(txCtx, from)
		if err != nil {
			return err
		}
		destination, err := e.loadGatedAccount(txCtx, to)
		if err != nil {
			return err
		}

		if _, err := e.accounts.Debit(txCtx, from, amount); err != nil {
			if errors.Is(err, sentinel.ErrInsufficientFunds) {
				return dErrors.New(dErrors.CodeInsufficientFunds, "source balance cannot cover the transfer")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to debit source account")
		}
		if _, err := e.accounts.Credit(txCtx, to, amount); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to credit destination account")
		}

		tx = &emissionmodels.LedgerTransaction{
			ID:          domain.TransactionID(uuid.New()),
			Amount:      amount,
			Type:        emissionmodels.TxTransfer,
			Status:      emissionmodels.TxStatusCompleted,
			Memo:        purpose,
			FromBankRef: source.AccountRef,
			ToBankRef:   destination.AccountRef,
			CreatedAt:   now,
		}
		if err := e.transactions.AppendTransaction(txCtx, tx); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append ledger transaction")
		}

		if err := e.auditor.Append(txCtx, audit.Event{
			Action:        audit.EventInterbankTransfer,
			Timestamp:     now,
			OfficerID:     officer.ID,
			AggregateType: "transaction",
			AggregateID:   tx.ID.String(),
			Amount:        amount.String(),
			Reference:     string(source.AccountRef) + "->" + string(destination.AccountRef),
			Reason:        purpose,
			RequestID:     requestcontext.RequestID(ctx),
		}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record transfer audit event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// loadGatedAccount resolves the account and enforces the license gate shared
// with the emission engine.
func (e *TransferEngine) loadGatedAccount(ctx context.Context, id domain.CorrAccountID) (*ledgermodels.CorrAccount, error) {
	account, err := e.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Newf(dErrors.CodeNotFound, "correspondent account %s not found", id)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load correspondent account")
	}
	license, err := e.licenses.FindByID(ctx, account.LicenseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "license not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load license")
	}
	if !license.IsActive() {
		return nil, dErrors.Newf(dErrors.CodeLicenseNotActive, "license for bank %s is %s", license.BankCode, license.Status)
	}
	return account, nil
}

func (e *TransferEngine) replay(ctx context.Context, recordID string) (*emissionmodels.LedgerTransaction, error) {
	id, err := domain.ParseTransactionID(recordID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "idempotency key resolved to a malformed transaction id")
	}
	tx, err := e.transactions.FindTransaction(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load replayed transaction")
	}
	return tx, nil
}
