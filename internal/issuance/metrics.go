package issuance

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	IssuedTotal   prometheus.Counter
	RevokedTotal  prometheus.Counter
	FailuresTotal *prometheus.CounterVec // by stage (serialize, pin, anchor, revoke)
}

// NewMetrics registers the metrics with the default registry. Call once per process.
func NewMetrics() *Metrics {
	return &Metrics{
		IssuedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credo_credentials_issued_total",
			Help: "Credentials pinned and anchored on the ledger",
		}),
		RevokedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credo_credentials_revoked_total",
			Help: "Credentials revoked on the ledger",
		}),
		FailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credo_issuance_failures_total",
			Help: "Issuance and revocation failures by stage",
		}, []string{"stage"}),
	}
}

func (m *Metrics) incIssued() {
	if m != nil {
		m.IssuedTotal.Inc()
	}
}

func (m *Metrics) incRevoked() {
	if m != nil {
		m.RevokedTotal.Inc()
	}
}

func (m *Metrics) incFailure(stage string) {
	if m != nil {
		m.FailuresTotal.WithLabelValues(stage).Inc()
	}
}
