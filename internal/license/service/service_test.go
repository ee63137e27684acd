package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgerstore "altanbank/internal/ledger/store"
	"altanbank/internal/license/models"
	licensestore "altanbank/internal/license/store"
	"altanbank/internal/storage"
	"altanbank/pkg/domain"
	dErrors "altanbank/pkg/domain-errors"
	audit "altanbank/pkg/platform/audit"
	auditmemory "altanbank/pkg/platform/audit/store/memory"
	"altanbank/pkg/requestcontext"
)

func governor() domain.Officer {
	return domain.Officer{ID: domain.OfficerID(uuid.New()), Role: domain.RoleGovernor}
}

func boardMember() domain.Officer {
	return domain.Officer{ID: domain.OfficerID(uuid.New()), Role: domain.RoleBoardMember}
}

type fixture struct {
	svc      *LicenseService
	licenses *licensestore.MemoryStore
	accounts *ledgerstore.MemoryStore
	auditor  *auditmemory.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	licenses := licensestore.NewMemory()
	accounts := ledgerstore.NewMemory()
	auditor := auditmemory.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := New(licenses, accounts, storage.NewMemoryTx(), auditor, nil, logger)
	return &fixture{svc: svc, licenses: licenses, accounts: accounts, auditor: auditor}
}

func TestIssueLicense(t *testing.T) {
	f := newFixture(t)
	ctx := requestcontext.WithTime(context.Background(), time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))

	license, account, err := f.svc.IssueLicense(ctx, "altan1bankaddr", "khanbk", "Khan Bank", governor())
	require.NoError(t, err)

	assert.Equal(t, models.StatusActive, license.Status)
	assert.Equal(t, "KHANBK", license.BankCode, "bank code is normalized to upper case")
	require.NotNil(t, account)
	assert.True(t, account.Balance.IsZero())
	assert.Equal(t, license.ID, account.LicenseID)
	assert.Equal(t, domain.NewAccountRef("KHANBK", license.ID), account.AccountRef)

	events := f.auditor.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventLicenseIssued, events[0].Action)
	assert.Equal(t, license.ID.String(), events[0].AggregateID)
}

func TestIssueLicenseDuplicateCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.IssueLicense(ctx, "addr-1", "GOLOMT", "Golomt Bank", governor())
	require.NoError(t, err)

	_, _, err = f.svc.IssueLicense(ctx, "addr-2", "golomt", "Golomt Impostor", governor())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	// The losing issuance must not leave a stray account behind.
	count, err := f.accounts.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIssueLicenseReleasedCodeAfterRevocation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gov := governor()

	first, _, err := f.svc.IssueLicense(ctx, "addr-1", "TDB", "Trade Bank", gov)
	require.NoError(t, err)

	_, err = f.svc.RevokeLicense(ctx, first.ID, "charter withdrawn", gov)
	require.NoError(t, err)

	// Revocation frees the code for a fresh license.
	second, _, err := f.svc.IssueLicense(ctx, "addr-2", "TDB", "Trade Bank II", gov)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestIssueLicenseValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		address  string
		code     string
		bankName string
	}{
		{"empty address", "", "ABC", "Bank"},
		{"code too short", "addr", "AB", "Bank"},
		{"code too long", "addr", "ABCDEFGHIJKLM", "Bank"},
		{"code not alphanumeric", "addr", "AB-C", "Bank"},
		{"empty name", "addr", "ABC", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.IssueLicense(ctx, tt.address, tt.code, tt.bankName, governor())
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestLicenseLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gov := governor()

	license, _, err := f.svc.IssueLicense(ctx, "addr", "XACBNK", "Xac Bank", gov)
	require.NoError(t, err)

	suspended, err := f.svc.SuspendLicense(ctx, license.ID, boardMember())
	require.NoError(t, err)
	assert.Equal(t, models.StatusSuspended, suspended.Status)

	// Double suspension is an invalid transition.
	_, err = f.svc.SuspendLicense(ctx, license.ID, gov)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))

	reactivated, err := f.svc.ReactivateLicense(ctx, license.ID, boardMember())
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, reactivated.Status)

	revoked, err := f.svc.RevokeLicense(ctx, license.ID, "sanctions breach", gov)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRevoked, revoked.Status)
	require.NotNil(t, revoked.RevokedAt)
	assert.Equal(t, "sanctions breach", revoked.RevokeReason)

	// REVOKED is terminal.
	_, err = f.svc.ReactivateLicense(ctx, license.ID, gov)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))

	events := f.auditor.Events()
	require.Len(t, events, 4)
	assert.Equal(t, audit.EventLicenseRevoked, events[3].Action)
	assert.Equal(t, "sanctions breach", events[3].Reason)
}

func TestRevokeRequiresReason(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	gov := governor()

	license, _, err := f.svc.IssueLicense(ctx, "addr", "ARIG", "Arig Bank", gov)
	require.NoError(t, err)

	_, err = f.svc.RevokeLicense(ctx, license.ID, "   ", gov)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestLicenseAuthorization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	board := boardMember()

	// Board members cannot issue or revoke.
	_, _, err := f.svc.IssueLicense(ctx, "addr", "ABC", "Bank", board)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	license, _, err := f.svc.IssueLicense(ctx, "addr", "ABC", "Bank", governor())
	require.NoError(t, err)

	_, err = f.svc.RevokeLicense(ctx, license.ID, "reason", board)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	// An anonymous caller is rejected before any store access.
	_, err = f.svc.SuspendLicense(ctx, license.ID, domain.Officer{Role: domain.RoleGovernor})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestTransitionUnknownLicense(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SuspendLicense(context.Background(), domain.LicenseID(uuid.New()), governor())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
