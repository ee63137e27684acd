package models

import (
	"time"

	"github.com/shopspring/decimal"

	"altanbank/pkg/domain"
)

// CorrAccount is the balance-holding account owned by exactly one bank
// license. Balance moves only through the emission and transfer engines;
// nothing else mutates it.
//
// Invariant: Balance >= 0 at all times. Every balance change commits together
// with the emission record or transfer transaction that justifies it.
type CorrAccount struct {
	ID         domain.CorrAccountID `json:"id"`
	LicenseID  domain.LicenseID     `json:"license_id"`
	AccountRef domain.AccountRef    `json:"account_ref"`
	Balance    decimal.Decimal      `json:"balance"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}
