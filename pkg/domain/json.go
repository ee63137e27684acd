package domain

import "github.com/google/uuid"

// JSON bridging for the typed ids: marshal as the canonical UUID string.

func (id LicenseID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id CorrAccountID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id EmissionID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id TransactionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id OfficerID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id PolicyID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }

func unmarshalID(dst *uuid.UUID, text []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(text); err != nil {
		return err
	}
	*dst = u
	return nil
}

func (id *LicenseID) UnmarshalText(text []byte) error     { return unmarshalID((*uuid.UUID)(id), text) }
func (id *CorrAccountID) UnmarshalText(text []byte) error { return unmarshalID((*uuid.UUID)(id), text) }
func (id *EmissionID) UnmarshalText(text []byte) error    { return unmarshalID((*uuid.UUID)(id), text) }
func (id *TransactionID) UnmarshalText(text []byte) error { return unmarshalID((*uuid.UUID)(id), text) }
func (id *OfficerID) UnmarshalText(text []byte) error     { return unmarshalID((*uuid.UUID)(id), text) }
func (id *PolicyID) UnmarshalText(text []byte) error      { return unmarshalID((*uuid.UUID)(id), text) }
