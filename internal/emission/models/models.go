package models

import (
	"time"

	"github.com/shopspring/decimal"

	"altanbank/pkg/domain"
)

// EmissionType distinguishes supply creation from supply destruction.
type EmissionType string

const (
	TypeMint EmissionType = "MINT"
	TypeBurn EmissionType = "BURN"
)

// EmissionStatus of a record. COMPLETED records are immutable; correction is
// only by an offsetting emission, never by editing history. REVERSED exists
// for operator-driven unwind tooling and is excluded from every aggregate.
type EmissionStatus string

const (
	StatusCompleted EmissionStatus = "COMPLETED"
	StatusReversed  EmissionStatus = "REVERSED"
)

// EmissionRecord is the append-only audit trail of supply changes.
//
// Conservation invariant: sum(COMPLETED MINT) - sum(COMPLETED BURN) equals
// the sum of all correspondent account balances at all times.
type EmissionRecord struct {
	ID            domain.EmissionID    `json:"id"`
	Type          EmissionType         `json:"type"`
	Amount        decimal.Decimal      `json:"amount"`
	Reason        string               `json:"reason"`
	Memo          string               `json:"memo,omitempty"`
	CorrAccountID domain.CorrAccountID `json:"corr_account_id"`
	AuthorizedBy  domain.OfficerID     `json:"authorized_by"`
	Status        EmissionStatus       `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
}

// TransactionType of a public ledger transaction entry.
type TransactionType string

const (
	TxMint     TransactionType = "MINT"
	TxBurn     TransactionType = "BURN"
	TxTransfer TransactionType = "TRANSFER"
)

// LedgerTransaction is the public-facing transaction record. One entry
// accompanies every balance mutation; external auditors consume this log
// without access to the internal emission records.
type LedgerTransaction struct {
	ID          domain.TransactionID `json:"id"`
	Amount      decimal.Decimal      `json:"amount"`
	Type        TransactionType      `json:"type"`
	Status      string               `json:"status"`
	Memo        string               `json:"memo,omitempty"`
	FromBankRef domain.AccountRef    `json:"from_bank_ref,omitempty"`
	ToBankRef   domain.AccountRef    `json:"to_bank_ref,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

// TxStatusCompleted is the only transaction status the engine writes; the
// field exists so downstream mirrors can mark replayed entries.
const TxStatusCompleted = "COMPLETED"

// Supply is the derived supply aggregate. Circulating is recomputed from
// live balances on every read, never stored.
type Supply struct {
	Minted      decimal.Decimal `json:"minted"`
	Burned      decimal.Decimal `json:"burned"`
	Circulating decimal.Decimal `json:"circulating"`
}

// DailyEmission reports net emission against the active policy's cap for the
// current UTC day. Used can go negative when burns outweigh mints.
type DailyEmission struct {
	Used      decimal.Decimal `json:"used"`
	Limit     decimal.Decimal `json:"limit"`
	Remaining decimal.Decimal `json:"remaining"`
}

// DayWindow returns the half-open UTC day window containing now.
func DayWindow(now time.Time) (start, end time.Time) {
	utc := now.UTC()
	start = time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
