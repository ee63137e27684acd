package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"altanbank/internal/emission/models"
	emissionstore "altanbank/internal/emission/store"
	ledgermodels "altanbank/internal/ledger/models"
	ledgerstore "altanbank/internal/ledger/store"
	licensemodels "altanbank/internal/license/models"
	licensestore "altanbank/internal/license/store"
	policymodels "altanbank/internal/policy/models"
	policystore "altanbank/internal/policy/store"
	"altanbank/internal/storage"
	"altanbank/pkg/domain"
	dErrors "altanbank/pkg/domain-errors"
	audit "altanbank/pkg/platform/audit"
	auditmemory "altanbank/pkg/platform/audit/store/memory"
	"altanbank/pkg/platform/idempotency"
	"altanbank/pkg/requestcontext"
)

func governor() domain.Officer {
	return domain.Officer{ID: domain.OfficerID(uuid.New()), Role: domain.RoleGovernor}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	engine    *EmissionEngine
	emissions *emissionstore.MemoryStore
	accounts  *ledgerstore.MemoryStore
	licenses  *licensestore.MemoryStore
	policies  *policystore.MemoryStore
	idem      *idempotency.MemoryStore
	auditor   *auditmemory.Store
	tx        *storage.MemoryTx
	logger    *slog.Logger
}

func newFixture(t *testing.T, dailyLimit string) *fixture {
	t.Helper()

	f := &fixture{
		emissions: emissionstore.NewMemory(),
		accounts:  ledgerstore.NewMemory(),
		licenses:  licensestore.NewMemory(),
		policies:  policystore.NewMemory(),
		idem:      idempotency.NewMemory(),
		auditor:   auditmemory.New(),
	}
	f.policies.Seed(&policymodels.MonetaryPolicy{
		ID:                 domain.PolicyID(uuid.New()),
		OfficialRate:       dec("1"),
		ReserveRequirement: dec("0.1"),
		DailyEmissionLimit: dec(dailyLimit),
		IsActive:           true,
		EffectiveFrom:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	f.tx = storage.NewMemoryTx()
	f.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	f.engine = New(f.emissions, f.accounts, f.licenses, f.policies, f.tx, f.idem, f.auditor, nil, f.logger)
	return f
}

// seedBank creates an ACTIVE license with a zero-balance account directly in
// the stores.
func (f *fixture) seedBank(t *testing.T, code string) *ledgermodels.CorrAccount {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	license, err := licensemodels.NewBankLicense(domain.LicenseID(uuid.New()), "addr-"+code, code, "Bank "+code, domain.OfficerID(uuid.New()), now)
	require.NoError(t, err)
	require.NoError(t, f.licenses.CreateIfCodeAvailable(ctx, license))

	account := &ledgermodels.CorrAccount{
		ID:         domain.CorrAccountID(uuid.New()),
		LicenseID:  license.ID,
		AccountRef: domain.NewAccountRef(code, license.ID),
		Balance:    decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, f.accounts.Create(ctx, account))
	return account
}

func (f *fixture) licenseOf(t *testing.T, account *ledgermodels.CorrAccount) *licensemodels.BankLicense {
	t.Helper()
	license, err := f.licenses.FindByID(context.Background(), account.LicenseID)
	require.NoError(t, err)
	return license
}

// requireConservation checks the core invariant: minted - burned equals the
// live sum of all account balances.
func (f *fixture) requireConservation(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	supply, err := f.engine.GetSupply(ctx)
	require.NoError(t, err)
	assert.True(t, supply.Minted.Sub(supply.Burned).Equal(supply.Circulating),
		"minted %s - burned %s != circulating %s", supply.Minted, supply.Burned, supply.Circulating)

	total, err := f.accounts.TotalBalance(ctx)
	require.NoError(t, err)
	assert.True(t, supply.Circulating.Equal(total))
}

func TestMintInitialLiquidity(t *testing.T) {
	f := newFixture(t, "10000000")
	account := f.seedBank(t, "SIB001")
	ctx := context.Background()

	record, replayed, err := f.engine.Mint(ctx, account.ID, dec("1000000"), "Initial liquidity", "", governor())
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, models.TypeMint, record.Type)
	assert.Equal(t, models.StatusCompleted, record.Status)

	supply, err := f.engine.GetSupply(ctx)
	require.NoError(t, err)
	assert.True(t, supply.Minted.Equal(dec("1000000")))
	assert.True(t, supply.Burned.IsZero())
	assert.True(t, supply.Circulating.Equal(dec("1000000")))

	// One public transaction accompanies the mint, crediting the bank ref.
	txs, err := f.engine.GetTransactionHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, models.TxMint, txs[0].Type)
	assert.Equal(t, account.AccountRef, txs[0].ToBankRef)
	assert.True(t, txs[0].FromBankRef.IsZero())

	events := f.auditor.Events()
	require.Len(t, events, 1)
	assert.Equal(t, audit.EventAltanMinted, events[0].Action)
	assert.Equal(t, "1000000", events[0].Amount)

	f.requireConservation(t)
}

func TestMintDailyLimitExceeded(t *testing.T) {
	f := newFixture(t, "10000000")
	account := f.seedBank(t, "KHANBK")
	gov := governor()
	ctx := requestcontext.WithTime(context.Background(), time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC))

	_, _, err := f.engine.Mint(ctx, account.ID, dec("9500000"), "morning tranche", "", gov)
	require.NoError(t, err)

	_, _, err = f.engine.Mint(ctx, account.ID, dec("600000"), "overflow", "", gov)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeDailyLimitExceeded))
	assert.Contains(t, dErrors.MessageOf(err), "500000", "message carries remaining capacity")

	// The rejected mint left supply unchanged.
	supply, err := f.engine.GetSupply(ctx)
	require.NoError(t, err)
	assert.True(t, supply.Circulating.Equal(dec("9500000")))

	// An exact fit still passes.
	_, _, err = f.engine.Mint(ctx, account.ID, dec("500000"), "exact fit", "", gov)
	require.NoError(t, err)

	daily, err := f.engine.GetDailyEmission(ctx)
	require.NoError(t, err)
	assert.True(t, daily.Used.Equal(dec("10000000")))
	assert.True(t, daily.Remaining.IsZero())

	f.requireConservation(t)
}

func TestMintCapResetsNextDay(t *testing.T) {
	f := newFixture(t, "1000")
	account := f.seedBank(t, "TDB")
	gov := governor()

	day1 := requestcontext.WithTime(context.Background(), time.Date(2025, 3, 2, 23, 59, 0, 0, time.UTC))
	_, _, err := f.engine.Mint(day1, account.ID, dec("1000"), "fill the cap", "", gov)
	require.NoError(t, err)

	_, _, err = f.engine.Mint(day1, account.ID, dec("0.01"), "over", "", gov)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeDailyLimitExceeded))

	day2 := requestcontext.WithTime(context.Background(), time.Date(2025, 3, 3, 0, 0, 1, 0, time.UTC))
	_, _, err = f.engine.Mint(day2, account.ID, dec("1000"), "fresh window", "", gov)
	require.NoError(t, err)
}

func TestBurnFreesDailyCapacity(t *testing.T) {
	f := newFixture(t, "1000")
	account := f.seedBank(t, "XACBNK")
	gov := governor()
	ctx := requestcontext.WithTime(context.Background(), time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC))

	_, _, err := f.engine.Mint(ctx, account.ID, dec("1000"), "fill", "", gov)
	require.NoError(t, err)

	// Burns are uncapped and count against the day's net creation.
	_, _, err = f.engine.Burn(ctx, account.ID, dec("400"), "retire", "", gov)
	require.NoError(t, err)

	daily, err := f.engine.GetDailyEmission(ctx)
	require.NoError(t, err)
	assert.True(t, daily.Used.Equal(dec("600")))
	assert.True(t, daily.Remaining.Equal(dec("400")))

	_, _, err = f.engine.Mint(ctx, account.ID, dec("400"), "refill", "", gov)
	require.NoError(t, err)

	f.requireConservation(t)
}

func TestBurnInsufficientFunds(t *testing.T) {
	f := newFixture(t, "10000")
	account := f.seedBank(t, "ARIG")
	gov := governor()
	ctx := context.Background()

	_, _, err := f.engine.Mint(ctx, account.ID, dec("100"), "seed", "", gov)
	require.NoError(t, err)

	_, _, err = f.engine.Burn(ctx, account.ID, dec("100.01"), "overdraft", "", gov)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInsufficientFunds))

	// The failed burn left no partial effect: no record, balance unchanged.
	supply, err := f.engine.GetSupply(ctx)
	require.NoError(t, err)
	assert.True(t, supply.Burned.IsZero())
	assert.True(t, supply.Circulating.Equal(dec("100")))
}

func TestEmissionAgainstInactiveLicense(t *testing.T) {
	f := newFixture(t, "10000")
	account := f.seedBank(t, "GOLOMT")
	gov := governor()
	ctx := context.Background()

	_, _, err := f.engine.Mint(ctx, account.ID, dec("500"), "seed", "", gov)
	require.NoError(t, err)

	now := time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC)
	_, err = f.licenses.Execute(ctx, account.LicenseID,
		func(l *licensemodels.BankLicense) error { return l.CanRevoke() },
		func(l *licensemodels.BankLicense) { l.ApplyRevocation("charter withdrawn", now) },
	)
	require.NoError(t, err)

	// Mint and burn both fail regardless of balance sufficiency.
	_, _, err = f.engine.Mint(ctx, account.ID, dec("1"), "after revoke", "", gov)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeLicenseNotActive))

	_, _, err = f.engine.Burn(ctx, account.ID, dec("1"), "after revoke", "", gov)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeLicenseNotActive))

	// The frozen balance is unchanged and still queryable.
	frozen, err := f.accounts.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.True(t, frozen.Balance.Equal(dec("500")))

	license := f.licenseOf(t, account)
	assert.Equal(t, licensemodels.StatusRevoked, license.Status)
}

func TestEmissionValidation(t *testing.T) {
	f := newFixture(t, "10000")
	account := f.seedBank(t, "BOGD")
	gov := governor()
	ctx := context.Background()

	_, _, err := f.engine.Mint(ctx, account.ID, dec("0"), "zero", "", gov)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, _, err = f.engine.Mint(ctx, account.ID, dec("-5"), "negative", "", gov)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, _, err = f.engine.Mint(ctx, account.ID, dec("1.001"), "sub-cent", "", gov)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, _, err = f.engine.Mint(ctx, account.ID, dec("1"), "   ", "", gov)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, _, err = f.engine.Mint(ctx, domain.CorrAccountID(uuid.New()), dec("1"), "unknown account", "", gov)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	board := domain.Officer{ID: domain.OfficerID(uuid.New()), Role: domain.RoleBoardMember}
	_, _, err = f.engine.Mint(ctx, account.ID, dec("1"), "board mint", "", board)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestMintIdempotencyReplay(t *testing.T) {
	f := newFixture(t, "10000")
	account := f.seedBank(t, "CHINGGIS")
	gov := governor()
	ctx := requestcontext.WithIdempotencyKey(context.Background(), "mint-req-42")

	first, replayed, err := f.engine.Mint(ctx, account.ID, dec("750"), "liquidity", "", gov)
	require.NoError(t, err)
	assert.False(t, replayed)

	second, replayed, err := f.engine.Mint(ctx, account.ID, dec("750"), "liquidity", "", gov)
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, second.ID)

	// The retry did not double-apply.
	supply, err := f.engine.GetSupply(ctx)
	require.NoError(t, err)
	assert.True(t, supply.Circulating.Equal(dec("750")))
}

func TestMintIdempotencyReleaseOnFailure(t *testing.T) {
	f := newFixture(t, "100")
	account := f.seedBank(t, "ULAAN")
	gov := governor()
	ctx := requestcontext.WithIdempotencyKey(context.Background(), "mint-req-43")

	_, _, err := f.engine.Mint(ctx, account.ID, dec("500"), "over the cap", "", gov)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeDailyLimitExceeded))

	// The failed attempt released the key; a corrected retry succeeds.
	_, replayed, err := f.engine.Mint(ctx, account.ID, dec("100"), "within the cap", "", gov)
	require.NoError(t, err)
	assert.False(t, replayed)
}

func TestConservationAcrossMixedOperations(t *testing.T) {
	f := newFixture(t, "1000000")
	a := f.seedBank(t, "BANKA")
	b := f.seedBank(t, "BANKB")
	gov := governor()
	ctx := context.Background()

	steps := []struct {
		kind    models.EmissionType
		account domain.CorrAccountID
		amount  string
	}{
		{models.TypeMint, a.ID, "1000"},
		{models.TypeMint, b.ID, "400.50"},
		{models.TypeBurn, a.ID, "250.25"},
		{models.TypeMint, a.ID, "10"},
		{models.TypeBurn, b.ID, "400.50"},
		{models.TypeMint, b.ID, "0.01"},
	}
	for _, step := range steps {
		var err error
		if step.kind == models.TypeMint {
			_, _, err = f.engine.Mint(ctx, step.account, dec(step.amount), "step", "", gov)
		} else {
			_, _, err = f.engine.Burn(ctx, step.account, dec(step.amount), "step", "", gov)
		}
		require.NoError(t, err)
		f.requireConservation(t)
	}

	supply, err := f.engine.GetSupply(ctx)
	require.NoError(t, err)
	assert.True(t, supply.Circulating.Equal(dec("759.76")))
}

// interposingAccounts fires a hook the first time TotalBalance is read,
// which inside GetSupply is after the emission totals have been loaded.
type interposingAccounts struct {
	*ledgerstore.MemoryStore
	once sync.Once
	hook func()
}

func (s *interposingAccounts) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	s.once.Do(s.hook)
	return s.MemoryStore.TotalBalance(ctx)
}

func TestSupplyReadConsistentUnderConcurrentMint(t *testing.T) {
	f := newFixture(t, "10000000")
	account := f.seedBank(t, "NIBANK")
	gov := governor()
	ctx := context.Background()

	_, _, err := f.engine.Mint(ctx, account.ID, dec("500"), "seed", "", gov)
	require.NoError(t, err)

	// Kick off a mint between the supply read's two aggregates. A consistent
	// read must report the mint either entirely or not at all.
	mintDone := make(chan error, 1)
	accounts := &interposingAccounts{
		MemoryStore: f.accounts,
		hook: func() {
			go func() {
				_, _, mintErr := f.engine.Mint(ctx, account.ID, dec("1000000"), "interleaved", "", gov)
				mintDone <- mintErr
			}()
			// Leave the mint time to land between the aggregates if the
			// supply read lets it through.
			time.Sleep(50 * time.Millisecond)
		},
	}
	reader := New(f.emissions, accounts, f.licenses, f.policies, f.tx, f.idem, f.auditor, nil, f.logger)

	supply, err := reader.GetSupply(ctx)
	require.NoError(t, err)
	assert.True(t, supply.Minted.Sub(supply.Burned).Equal(supply.Circulating),
		"minted %s - burned %s != circulating %s", supply.Minted, supply.Burned, supply.Circulating)

	require.NoError(t, <-mintDone)
	f.requireConservation(t)
}

func TestEmissionHistoryNewestFirst(t *testing.T) {
	f := newFixture(t, "100000")
	account := f.seedBank(t, "CAPITR")
	gov := governor()

	for i, amount := range []string{"1", "2", "3"} {
		ctx := requestcontext.WithTime(context.Background(),
			time.Date(2025, 3, 2, 10, i, 0, 0, time.UTC))
		_, _, err := f.engine.Mint(ctx, account.ID, dec(amount), "tranche", "", gov)
		require.NoError(t, err)
	}

	history, err := f.engine.GetEmissionHistory(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].Amount.Equal(dec("3")))
	assert.True(t, history[1].Amount.Equal(dec("2")))
}
