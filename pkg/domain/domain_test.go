package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "altanbank/pkg/domain-errors"
)

// ID parsing enforces the boundary invariant: valid, non-empty, non-nil UUIDs.
func TestParseLicenseID(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseLicenseID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseLicenseID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseLicenseID(uuid.Nil.String())
		require.Error(t, err)
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParseLicenseID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, LicenseID(valid), id)
	})
}

func TestNewAccountRef(t *testing.T) {
	licenseID := LicenseID(uuid.MustParse("3f2504e0-4f89-41d3-9a0c-0305e82c3301"))

	ref := NewAccountRef("sib001", licenseID)
	assert.Equal(t, AccountRef("CORR-SIB001-3f2504e0"), ref)

	// Deterministic: same inputs, same reference.
	assert.Equal(t, ref, NewAccountRef("SIB001", licenseID))

	parsed, err := ParseAccountRef(ref.String())
	require.NoError(t, err)
	assert.Equal(t, ref, parsed)
}

func TestParseAccountRefRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "SIB001", "CORR--3f2504e0", "CORR-SIB001-xyz", "corr-sib001-3f2504e0"} {
		_, err := ParseAccountRef(raw)
		assert.Error(t, err, raw)
	}
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, ValidateAmount(decimal.RequireFromString("1000000")))
	assert.NoError(t, ValidateAmount(decimal.RequireFromString("0.01")))

	for name, raw := range map[string]string{
		"zero":           "0",
		"negative":       "-5",
		"sub-cent scale": "1.001",
	} {
		t.Run(name, func(t *testing.T) {
			err := ValidateAmount(decimal.RequireFromString(raw))
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestParseOfficerRole(t *testing.T) {
	role, err := ParseOfficerRole("GOVERNOR")
	require.NoError(t, err)
	assert.Equal(t, RoleGovernor, role)

	_, err = ParseOfficerRole("INTERN")
	assert.Error(t, err)
}
