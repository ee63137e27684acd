package domain

import (
	"database/sql/driver"

	"github.com/google/uuid"
)

// database/sql bridging for the typed ids. Defined types do not inherit
// uuid.UUID's Scanner/Valuer methods, so each wrapper forwards explicitly.

func scanID(dst *uuid.UUID, src any) error {
	var u uuid.UUID
	if err := u.Scan(src); err != nil {
		return err
	}
	*dst = u
	return nil
}

func (id LicenseID) Value() (driver.Value, error)     { return uuid.UUID(id).Value() }
func (id CorrAccountID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }
func (id EmissionID) Value() (driver.Value, error)    { return uuid.UUID(id).Value() }
func (id TransactionID) Value() (driver.Value, error) { return uuid.UUID(id).Value() }
func (id OfficerID) Value() (driver.Value, error)     { return uuid.UUID(id).Value() }
func (id PolicyID) Value() (driver.Value, error)      { return uuid.UUID(id).Value() }

func (id *LicenseID) Scan(src any) error     { return scanID((*uuid.UUID)(id), src) }
func (id *CorrAccountID) Scan(src any) error { return scanID((*uuid.UUID)(id), src) }
func (id *EmissionID) Scan(src any) error    { return scanID((*uuid.UUID)(id), src) }
func (id *TransactionID) Scan(src any) error { return scanID((*uuid.UUID)(id), src) }
func (id *OfficerID) Scan(src any) error     { return scanID((*uuid.UUID)(id), src) }
func (id *PolicyID) Scan(src any) error      { return scanID((*uuid.UUID)(id), src) }
