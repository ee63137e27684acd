package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	dErrors "altanbank/pkg/domain-errors"
)

// AccountRef is the human-readable key for a correspondent account. Outside
// the ledger module it is an opaque reference: other modules store and compare
// it but only the ledger can resolve it back to an account. This keeps the
// module boundary explicit instead of leaking a foreign key.
type AccountRef string

var accountRefPattern = regexp.MustCompile(`^CORR-[A-Z0-9]{3,12}-[0-9a-f]{8}$`)

// NewAccountRef derives the deterministic reference for a license's account
// from the bank code and the license id. The same inputs always produce the
// same reference, so issuance is replay-safe.
func NewAccountRef(bankCode string, licenseID LicenseID) AccountRef {
	short := strings.ReplaceAll(uuid.UUID(licenseID).String(), "-", "")[:8]
	return AccountRef(fmt.Sprintf("CORR-%s-%s", strings.ToUpper(bankCode), short))
}

func (r AccountRef) String() string { return string(r) }

func (r AccountRef) IsZero() bool { return r == "" }

func ParseAccountRef(raw string) (AccountRef, error) {
	if !accountRefPattern.MatchString(raw) {
		return "", dErrors.Newf(dErrors.CodeBadRequest, "malformed account reference %q", raw)
	}
	return AccountRef(raw), nil
}
