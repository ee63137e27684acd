package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the emission engine.
type Metrics struct {
	MintsTotal prometheus.Counter
	BurnsTotal prometheus.Counter

	// Rejections by error code: "license_not_active", "daily_limit_exceeded",
	// "insufficient_funds", "invalid_input"
	RejectionsTotal *prometheus.CounterVec

	MintDuration prometheus.Histogram
}

// New creates a new Metrics instance with all emission engine metrics registered.
func New() *Metrics {
	return &Metrics{
		MintsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "altan_mints_total",
			Help: "Total completed mint operations",
		}),
		BurnsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "altan_burns_total",
			Help: "Total completed burn operations",
		}),
		RejectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "altan_emission_rejections_total",
			Help: "Total rejected emission operations by reason",
		}, []string{"reason"}),
		MintDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "altan_mint_duration_seconds",
			Help:    "Duration of mint operations including daily-cap validation",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncMint records a committed mint.
func (m *Metrics) IncMint() {
	if m != nil {
		m.MintsTotal.Inc()
	}
}

// IncBurn records a committed burn.
func (m *Metrics) IncBurn() {
	if m != nil {
		m.BurnsTotal.Inc()
	}
}

// IncRejection records a rejected emission by error reason.
func (m *Metrics) IncRejection(reason string) {
	if m != nil {
		m.RejectionsTotal.WithLabelValues(reason).Inc()
	}
}

// ObserveMintDuration records the duration of a mint attempt.
func (m *Metrics) ObserveMintDuration(d time.Duration) {
	if m != nil {
		m.MintDuration.Observe(d.Seconds())
	}
}
