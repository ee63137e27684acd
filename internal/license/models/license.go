package models

import (
	"strings"
	"time"

	"altanbank/pkg/domain"
	dErrors "altanbank/pkg/domain-errors"
)

// LicenseStatus is the lifecycle state of a bank license.
type LicenseStatus string

const (
	StatusActive    LicenseStatus = "ACTIVE"
	StatusSuspended LicenseStatus = "SUSPENDED"
	StatusRevoked   LicenseStatus = "REVOKED"
)

// CanTransitionTo encodes the state machine: ACTIVE and SUSPENDED toggle
// freely, REVOKED is terminal.
func (s LicenseStatus) CanTransitionTo(next LicenseStatus) bool {
	if s == StatusRevoked {
		return false
	}
	switch next {
	case StatusActive:
		return s == StatusSuspended
	case StatusSuspended:
		return s == StatusActive
	case StatusRevoked:
		return true
	}
	return false
}

// BankLicense is the aggregate root for a licensed bank.
//
// Invariants:
//   - BankCode is unique among non-revoked licenses
//   - Exactly one correspondent account is created alongside issuance
//   - REVOKED is terminal; no transition leaves it
//   - Revocation does not zero the account balance; frozen funds stay
//     visible for audit and unwind
type BankLicense struct {
	ID           domain.LicenseID `json:"id"`
	BankAddress  string           `json:"bank_address"`
	BankCode     string           `json:"bank_code"`
	BankName     string           `json:"bank_name"`
	Status       LicenseStatus    `json:"status"`
	IssuedAt     time.Time        `json:"issued_at"`
	IssuedBy     domain.OfficerID `json:"issued_by"`
	RevokedAt    *time.Time       `json:"revoked_at,omitempty"`
	RevokeReason string           `json:"revoke_reason,omitempty"`
}

func (l *BankLicense) IsActive() bool {
	return l.Status == StatusActive
}

func (l *BankLicense) CanSuspend() error {
	if !l.Status.CanTransitionTo(StatusSuspended) {
		return dErrors.Newf(dErrors.CodeInvalidState, "license in status %s cannot be suspended", l.Status)
	}
	return nil
}

func (l *BankLicense) ApplySuspension() {
	l.Status = StatusSuspended
}

func (l *BankLicense) CanReactivate() error {
	if !l.Status.CanTransitionTo(StatusActive) {
		return dErrors.Newf(dErrors.CodeInvalidState, "license in status %s cannot be reactivated", l.Status)
	}
	return nil
}

func (l *BankLicense) ApplyReactivation() {
	l.Status = StatusActive
}

func (l *BankLicense) CanRevoke() error {
	if !l.Status.CanTransitionTo(StatusRevoked) {
		return dErrors.New(dErrors.CodeInvalidState, "license is already revoked")
	}
	return nil
}

func (l *BankLicense) ApplyRevocation(reason string, now time.Time) {
	l.Status = StatusRevoked
	l.RevokedAt = &now
	l.RevokeReason = reason
}

// NewBankLicense validates issuance input and constructs an ACTIVE license.
func NewBankLicense(id domain.LicenseID, bankAddress, bankCode, bankName string, issuedBy domain.OfficerID, now time.Time) (*BankLicense, error) {
	bankAddress = strings.TrimSpace(bankAddress)
	bankCode = strings.ToUpper(strings.TrimSpace(bankCode))
	bankName = strings.TrimSpace(bankName)

	if bankAddress == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "bank address cannot be empty")
	}
	if len(bankCode) < 3 || len(bankCode) > 12 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "bank code must be 3 to 12 characters")
	}
	for _, r := range bankCode {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "bank code must be alphanumeric")
		}
	}
	if bankName == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "bank name cannot be empty")
	}

	return &BankLicense{
		ID:          id,
		BankAddress: bankAddress,
		BankCode:    bankCode,
		BankName:    bankName,
		Status:      StatusActive,
		IssuedAt:    now,
		IssuedBy:    issuedBy,
	}, nil
}
