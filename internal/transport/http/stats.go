package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	emissionmodels "altanbank/internal/emission/models"
	"altanbank/internal/platform/config"
	platformredis "altanbank/internal/platform/redis"
	policymodels "altanbank/internal/policy/models"
	dErrors "altanbank/pkg/domain-errors"
	"altanbank/pkg/platform/httputil"
)

const statsCacheKey = "public:stats"

// SupplyReader is the emission engine slice the stats endpoint needs.
type SupplyReader interface {
	GetSupply(ctx context.Context) (*emissionmodels.Supply, error)
	LastEmissionAt(ctx context.Context) (*time.Time, error)
}

// LicenseCounter counts non-revoked licenses.
type LicenseCounter interface {
	CountActive(ctx context.Context) (int, error)
}

// PolicyReader resolves the active policy for the official rate.
type PolicyReader interface {
	GetActivePolicy(ctx context.Context) (*policymodels.MonetaryPolicy, error)
}

// PublicStats is the unauthenticated aggregate view.
type PublicStats struct {
	TotalSupply        decimal.Decimal `json:"total_supply"`
	TotalMinted        decimal.Decimal `json:"total_minted"`
	TotalBurned        decimal.Decimal `json:"total_burned"`
	LicensedBanksCount int             `json:"licensed_banks_count"`
	OfficialRate       decimal.Decimal `json:"official_rate"`
	LastEmissionDate   *time.Time      `json:"last_emission_date"`
}

// StatsHandler serves the public stats read, cached in Redis. A cache
// failure degrades to direct reads, never an error.
type StatsHandler struct {
	supply   SupplyReader
	licenses LicenseCounter
	policies PolicyReader
	cache    *platformredis.Client
	logger   *slog.Logger
}

func NewStatsHandler(supply SupplyReader, licenses LicenseCounter, policies PolicyReader, cache *platformredis.Client, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{supply: supply, licenses: licenses, policies: policies, cache: cache, logger: logger}
}

func (h *StatsHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if cached := h.fromCache(ctx); cached != nil {
		httputil.WriteJSON(w, http.StatusOK, cached)
		return
	}

	stats, err := h.compute(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to compute public stats", "error", err.Error())
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to compute stats"))
		return
	}

	h.toCache(ctx, stats)
	httputil.WriteJSON(w, http.StatusOK, stats)
}

// compute gathers the aggregates in parallel. Each read is individually
// consistent; the composite view is a snapshot for display, not a ledger
// statement.
func (h *StatsHandler) compute(ctx context.Context) (*PublicStats, error) {
	var stats PublicStats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		supply, err := h.supply.GetSupply(gctx)
		if err != nil {
			return err
		}
		stats.TotalSupply = supply.Circulating
		stats.TotalMinted = supply.Minted
		stats.TotalBurned = supply.Burned
		return nil
	})
	g.Go(func() error {
		count, err := h.licenses.CountActive(gctx)
		if err != nil {
			return err
		}
		stats.LicensedBanksCount = count
		return nil
	})
	g.Go(func() error {
		policy, err := h.policies.GetActivePolicy(gctx)
		if err != nil {
			return err
		}
		stats.OfficialRate = policy.OfficialRate
		return nil
	})
	g.Go(func() error {
		last, err := h.supply.LastEmissionAt(gctx)
		if err != nil {
			return err
		}
		stats.LastEmissionDate = last
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (h *StatsHandler) fromCache(ctx context.Context) *PublicStats {
	if h.cache == nil {
		return nil
	}
	raw, err := h.cache.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var stats PublicStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil
	}
	return &stats
}

func (h *StatsHandler) toCache(ctx context.Context, stats *PublicStats) {
	if h.cache == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := h.cache.Set(ctx, statsCacheKey, raw, config.PublicStatsCacheTTL).Err(); err != nil {
		h.logger.WarnContext(ctx, "failed to cache public stats", "error", err.Error())
	}
}
