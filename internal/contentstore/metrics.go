package contentstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers gateway fetches and the content cache.
type Metrics struct {
	FetchDurationSeconds *prometheus.HistogramVec // gateway round trip by result
	FetchErrorsTotal     *prometheus.CounterVec   // failures by category
	FetchBytes           prometheus.Histogram

	CacheHitsTotal   *prometheus.CounterVec // by backend (memory, redis)
	CacheMissesTotal *prometheus.CounterVec

	PinsTotal *prometheus.CounterVec // by result
}

// NewMetrics registers the content store metrics with the default registry.
// Call once per process.
func NewMetrics() *Metrics {
	return &Metrics{
		FetchDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "credo_content_fetch_duration_seconds",
			Help:    "Duration of IPFS gateway fetches",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"result"}),

		FetchErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credo_content_fetch_errors_total",
			Help: "Total number of failed content fetches by category",
		}, []string{"category"}),

		FetchBytes: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "credo_content_fetch_bytes",
			Help:    "Size of fetched credential documents",
			Buckets: prometheus.ExponentialBuckets(128, 4, 8),
		}),

		CacheHitsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credo_content_cache_hits_total",
			Help: "Total number of content cache hits by backend",
		}, []string{"backend"}),

		CacheMissesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credo_content_cache_misses_total",
			Help: "Total number of content cache misses by backend",
		}, []string{"backend"}),

		PinsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credo_content_pins_total",
			Help: "Total number of pin uploads by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) observeFetch(result string, seconds float64) {
	if m == nil {
		return
	}
	m.FetchDurationSeconds.WithLabelValues(result).Observe(seconds)
}

func (m *Metrics) recordFetchError(category ErrorCategory) {
	if m == nil {
		return
	}
	m.FetchErrorsTotal.WithLabelValues(string(category)).Inc()
}

func (m *Metrics) observeBytes(n int) {
	if m == nil {
		return
	}
	m.FetchBytes.Observe(float64(n))
}

func (m *Metrics) recordCacheHit(backend string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(backend).Inc()
}

func (m *Metrics) recordCacheMiss(backend string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(backend).Inc()
}

func (m *Metrics) recordPin(result string) {
	if m == nil {
		return
	}
	m.PinsTotal.WithLabelValues(result).Inc()
}
