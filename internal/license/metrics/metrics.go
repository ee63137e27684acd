package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the license registry.
type Metrics struct {
	// Licenses issued since process start
	IssuedTotal prometheus.Counter

	// Lifecycle transitions by action: "suspend", "reactivate", "revoke"
	TransitionsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all license registry metrics registered.
func New() *Metrics {
	return &Metrics{
		IssuedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "altan_licenses_issued_total",
			Help: "Total bank licenses issued",
		}),
		TransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "altan_license_transitions_total",
			Help: "Total license lifecycle transitions by action",
		}, []string{"action"}),
	}
}

// IncIssued records a successful license issuance.
func (m *Metrics) IncIssued() {
	if m != nil {
		m.IssuedTotal.Inc()
	}
}

// IncTransition records a successful lifecycle transition.
func (m *Metrics) IncTransition(action string) {
	if m != nil {
		m.TransitionsTotal.WithLabelValues(action).Inc()
	}
}
