// Package metrics provides Prometheus metrics for verification, disclosure and sessions.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	VerificationsTotal          *prometheus.CounterVec   // by outcome
	VerificationDurationSeconds *prometheus.HistogramVec // by outcome
	DisclosuresTotal            *prometheus.CounterVec   // by result (ok, failure kind)
	SessionsActive              prometheus.Gauge
	StaleResultsDiscardedTotal  *prometheus.CounterVec // by operation (list, verify, disclose)
	LogWriteFailuresTotal       prometheus.Counter
}

// New registers the metrics with the default registry. Call once per process.
func New() *Metrics {
	return &Metrics{
		VerificationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credo_verifications_total",
			Help: "Total number of credential integrity checks by outcome",
		}, []string{"outcome"}),

		VerificationDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "credo_verification_duration_seconds",
			Help:    "Duration of credential integrity checks including the content fetch",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"outcome"}),

		DisclosuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credo_disclosures_total",
			Help: "Total number of selective disclosure projections by result",
		}, []string{"result"}),

		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "credo_sessions_active",
			Help: "Current number of live verification sessions",
		}),

		StaleResultsDiscardedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credo_session_stale_results_discarded_total",
			Help: "Results dropped because a newer request superseded them",
		}, []string{"operation"}),

		LogWriteFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "credo_verification_log_write_failures_total",
			Help: "Verification log entries that could not be stored",
		}),
	}
}

func (m *Metrics) ObserveVerification(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.VerificationsTotal.WithLabelValues(outcome).Inc()
	m.VerificationDurationSeconds.WithLabelValues(outcome).Observe(seconds)
}

func (m *Metrics) IncrementDisclosure(result string) {
	if m == nil {
		return
	}
	m.DisclosuresTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) SetSessionsActive(n int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(n))
}

func (m *Metrics) IncrementStaleDiscarded(operation string) {
	if m == nil {
		return
	}
	m.StaleResultsDiscardedTotal.WithLabelValues(operation).Inc()
}

func (m *Metrics) IncrementLogWriteFailure() {
	if m == nil {
		return
	}
	m.LogWriteFailuresTotal.Inc()
}
