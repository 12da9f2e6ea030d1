package extract

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ExtractionsTotal   *prometheus.CounterVec
	ExtractionDuration prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		ExtractionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "credo_extractions_total",
			Help: "Document extractions by result (ok, model_error, parse_error)",
		}, []string{"result"}),
		ExtractionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "credo_extraction_duration_seconds",
			Help:    "Time spent waiting on the model for one document",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		}),
	}
}

func (m *Metrics) observe(result string, seconds float64) {
	if m == nil {
		return
	}
	m.ExtractionsTotal.WithLabelValues(result).Inc()
	m.ExtractionDuration.Observe(seconds)
}
