//go:build integration

package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"altanbank/internal/emission/service"
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
	auditpostgres "altanbank/pkg/platform/audit/store/postgres"
	"altanbank/pkg/platform/idempotency"
	"altanbank/pkg/requestcontext"
	"altanbank/pkg/testutil/containers"
)

type EmissionEngineSuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	emissions *emissionstore.PostgresStore
	accounts  *ledgerstore.PostgresStore
	licenses  *licensestore.PostgresStore
	policies  *policystore.PostgresStore
	engine    *service.EmissionEngine
	governor  domain.Officer
}

func TestEmissionEngineSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(EmissionEngineSuite))
}

func (s *EmissionEngineSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T(), "../../../migrations")

	s.emissions = emissionstore.NewPostgres(s.postgres.DB)
	s.accounts = ledgerstore.NewPostgres(s.postgres.DB)
	s.licenses = licensestore.NewPostgres(s.postgres.DB)
	s.policies = policystore.NewPostgres(s.postgres.DB)
	s.governor = domain.Officer{ID: domain.OfficerID(uuid.New()), Role: domain.RoleGovernor}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.engine = service.New(
		s.emissions,
		s.accounts,
		s.licenses,
		s.policies,
		storage.NewSQLTx(s.postgres.DB),
		idempotency.NewMemory(),
		auditpostgres.New(s.postgres.DB),
		nil,
		logger,
	)
}

func (s *EmissionEngineSuite) SetupTest() {
	ctx := context.Background()
	// Truncate in dependency order, then install a policy with a small cap so
	// the storm tests can exhaust it quickly.
	err := s.postgres.TruncateTables(ctx,
		"outbox",
		"ledger_transactions",
		"emission_records",
		"emission_days",
		"corr_accounts",
		"bank_licenses",
		"policy_changes",
		"monetary_policies",
	)
	s.Require().NoError(err)

	err = s.policies.Supersede(ctx, &policymodels.MonetaryPolicy{
		ID:                 domain.PolicyID(uuid.New()),
		OfficialRate:       decimal.NewFromFloat(3.5),
		ReserveRequirement: decimal.NewFromFloat(0.10),
		DailyEmissionLimit: decimal.NewFromInt(10_000),
		IsActive:           true,
		EffectiveFrom:      time.Now().UTC(),
		CreatedBy:          s.governor.ID,
	}, nil)
	s.Require().NoError(err)
}

func (s *EmissionEngineSuite) seedBank(code string) domain.CorrAccountID {
	ctx := context.Background()

	license, err := licensemodels.NewBankLicense(
		domain.LicenseID(uuid.New()),
		"1 Central Square",
		code,
		"Bank "+code,
		s.governor.ID,
		time.Now().UTC(),
	)
	s.Require().NoError(err)
	s.Require().NoError(s.licenses.CreateIfCodeAvailable(ctx, license))

	now := time.Now().UTC()
	account := &ledgermodels.CorrAccount{
		ID:         domain.CorrAccountID(uuid.New()),
		LicenseID:  license.ID,
		AccountRef: domain.NewAccountRef(license.BankCode, license.ID),
		Balance:    decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.Require().NoError(s.accounts.Create(ctx, account))
	return account.ID
}

// TestConcurrentMintStorm fires concurrent mints worth three times the daily
// cap and verifies the committed total never exceeds it.
func (s *EmissionEngineSuite) TestConcurrentMintStorm() {
	ctx := context.Background()
	accountID := s.seedBank("STORM1")

	const goroutines = 30
	mintAmount := decimal.NewFromInt(1_000)

	var wg sync.WaitGroup
	var successCount atomic.Int32
	var cappedCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, _, err := s.engine.Mint(ctx, accountID, mintAmount, "liquidity operation", "", s.governor)
			switch {
			case err == nil:
				successCount.Add(1)
			case dErrors.HasCode(err, dErrors.CodeDailyLimitExceeded):
				cappedCount.Add(1)
			default:
				s.T().Errorf("unexpected mint error: %v", err)
			}
		}()
	}

	wg.Wait()

	s.Equal(int32(10), successCount.Load(), "exactly cap/amount mints should land")
	s.Equal(int32(goroutines-10), cappedCount.Load(), "the rest should hit the daily limit")

	account, err := s.accounts.FindByID(ctx, accountID)
	s.Require().NoError(err)
	s.True(account.Balance.Equal(decimal.NewFromInt(10_000)), "balance %s", account.Balance)

	minted, burned, err := s.emissions.Totals(ctx)
	s.Require().NoError(err)
	s.True(minted.Equal(decimal.NewFromInt(10_000)))
	s.True(burned.IsZero())

	total, err := s.accounts.TotalBalance(ctx)
	s.Require().NoError(err)
	s.True(total.Equal(minted.Sub(burned)), "account balances must equal net emission")
}

// TestBurnRestoresHeadroom verifies that burning supply frees mint capacity
// within the same day.
func (s *EmissionEngineSuite) TestBurnRestoresHeadroom() {
	ctx := context.Background()
	accountID := s.seedBank("BURN01")

	_, _, err := s.engine.Mint(ctx, accountID, decimal.NewFromInt(10_000), "initial allotment", "", s.governor)
	s.Require().NoError(err)

	_, _, err = s.engine.Mint(ctx, accountID, decimal.NewFromInt(1), "over cap", "", s.governor)
	s.True(dErrors.HasCode(err, dErrors.CodeDailyLimitExceeded))

	_, _, err = s.engine.Burn(ctx, accountID, decimal.NewFromInt(4_000), "sterilization", "", s.governor)
	s.Require().NoError(err)

	_, _, err = s.engine.Mint(ctx, accountID, decimal.NewFromInt(4_000), "reissue", "", s.governor)
	s.Require().NoError(err)

	daily, err := s.engine.GetDailyEmission(ctx)
	s.Require().NoError(err)
	s.True(daily.Used.Equal(decimal.NewFromInt(10_000)), "net used %s", daily.Used)
	s.True(daily.Remaining.IsZero())
}

// TestCapResetsNextDay pins request time to verify the day window boundary.
func (s *EmissionEngineSuite) TestCapResetsNextDay() {
	accountID := s.seedBank("ROLL01")

	day1 := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	ctx1 := requestcontext.WithTime(context.Background(), day1)

	_, _, err := s.engine.Mint(ctx1, accountID, decimal.NewFromInt(10_000), "fills the cap", "", s.governor)
	s.Require().NoError(err)

	_, _, err = s.engine.Mint(ctx1, accountID, decimal.NewFromInt(1), "over cap", "", s.governor)
	s.True(dErrors.HasCode(err, dErrors.CodeDailyLimitExceeded))

	ctx2 := requestcontext.WithTime(context.Background(), day1.Add(24*time.Hour))
	_, _, err = s.engine.Mint(ctx2, accountID, decimal.NewFromInt(10_000), "fresh window", "", s.governor)
	s.Require().NoError(err)
}

// TestConcurrentMintAndBurn runs a mixed workload and checks conservation.
func (s *EmissionEngineSuite) TestConcurrentMintAndBurn() {
	ctx := context.Background()
	accountID := s.seedBank("MIX001")

	// Seed a balance so burns cannot fail on funds.
	_, _, err := s.engine.Mint(ctx, accountID, decimal.NewFromInt(5_000), "seed balance", "", s.governor)
	s.Require().NoError(err)

	const goroutines = 20
	var wg sync.WaitGroup

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			if idx%2 == 0 {
				_, _, _ = s.engine.Mint(ctx, accountID, decimal.NewFromInt(100), "drip mint", "", s.governor)
			} else {
				_, _, _ = s.engine.Burn(ctx, accountID, decimal.NewFromInt(100), "drip burn", "", s.governor)
			}
		}(i)
	}

	wg.Wait()

	minted, burned, err := s.emissions.Totals(ctx)
	s.Require().NoError(err)

	total, err := s.accounts.TotalBalance(ctx)
	s.Require().NoError(err)
	s.True(total.Equal(minted.Sub(burned)), "minted %s burned %s balances %s", minted, burned, total)

	supply, err := s.engine.GetSupply(ctx)
	s.Require().NoError(err)
	s.True(supply.Circulating.Equal(total))
}
