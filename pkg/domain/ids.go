// Package domain holds the typed identifiers and small value types shared
// across engine modules. Typed UUID wrappers keep a LicenseID from ever being
// passed where a CorrAccountID is expected; the compiler enforces it.
package domain

import (
	"github.com/google/uuid"

	dErrors "altanbank/pkg/domain-errors"
)

type (
	// LicenseID identifies a bank license.
	LicenseID uuid.UUID
	// CorrAccountID identifies a correspondent account.
	CorrAccountID uuid.UUID
	// EmissionID identifies an immutable emission record.
	EmissionID uuid.UUID
	// TransactionID identifies a public ledger transaction.
	TransactionID uuid.UUID
	// OfficerID identifies a central bank officer. Officers are provisioned by
	// the external authentication boundary; the engine only stamps them onto
	// records.
	OfficerID uuid.UUID
	// PolicyID identifies one monetary policy version.
	PolicyID uuid.UUID
)

func (id LicenseID) String() string     { return uuid.UUID(id).String() }
func (id CorrAccountID) String() string { return uuid.UUID(id).String() }
func (id EmissionID) String() string    { return uuid.UUID(id).String() }
func (id TransactionID) String() string { return uuid.UUID(id).String() }
func (id OfficerID) String() string     { return uuid.UUID(id).String() }
func (id PolicyID) String() string      { return uuid.UUID(id).String() }

func (id LicenseID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id CorrAccountID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id EmissionID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id TransactionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id OfficerID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id PolicyID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }

// parseUUID enforces the boundary invariant: ids must be valid, non-nil UUIDs.
func parseUUID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, "id must not be the nil UUID")
	}
	return parsed, nil
}

func ParseLicenseID(raw string) (LicenseID, error) {
	id, err := parseUUID(raw)
	return LicenseID(id), err
}

func ParseCorrAccountID(raw string) (CorrAccountID, error) {
	id, err := parseUUID(raw)
	return CorrAccountID(id), err
}

func ParseOfficerID(raw string) (OfficerID, error) {
	id, err := parseUUID(raw)
	return OfficerID(id), err
}

func ParseEmissionID(raw string) (EmissionID, error) {
	id, err := parseUUID(raw)
	return EmissionID(id), err
}

func ParseTransactionID(raw string) (TransactionID, error) {
	id, err := parseUUID(raw)
	return TransactionID(id), err
}
