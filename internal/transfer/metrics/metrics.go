package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the interbank transfer engine.
type Metrics struct {
	TransfersTotal prometheus.Counter

	// Rejections by error code: "license_not_active", "insufficient_funds",
	// "invalid_input"
	RejectionsTotal *prometheus.CounterVec

	TransferDuration prometheus.Histogram
}

// New creates a new Metrics instance with all transfer engine metrics registered.
func New() *Metrics {
	return &Metrics{
		TransfersTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "altan_transfers_total",
			Help: "Total completed interbank transfers",
		}),
		RejectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "altan_transfer_rejections_total",
			Help: "Total rejected interbank transfers by reason",
		}, []string{"reason"}),
		TransferDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "altan_transfer_duration_seconds",
			Help:    "Duration of interbank transfer operations",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncTransfer records a committed transfer.
func (m *Metrics) IncTransfer() {
	if m != nil {
		m.TransfersTotal.Inc()
	}
}

// IncRejection records a rejected transfer by error reason.
func (m *Metrics) IncRejection(reason string) {
	if m != nil {
		m.RejectionsTotal.WithLabelValues(reason).Inc()
	}
}

// ObserveTransferDuration records the duration of a transfer attempt.
func (m *Metrics) ObserveTransferDuration(d time.Duration) {
	if m != nil {
		m.TransferDuration.Observe(d.Seconds())
	}
}
