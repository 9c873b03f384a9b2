package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the export counters and histograms.
type Metrics struct {
	exports  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	size     prometheus.Histogram
}

// NewMetrics creates the export metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notion_exports_total",
				Help: "Total number of export attempts by outcome.",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "notion_export_duration_seconds",
				Help:    "Wall-clock duration of export attempts.",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 45, 60, 90},
			},
			[]string{"outcome"},
		),
		size: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notion_export_artifact_bytes",
			Help:    "Size of produced PDF artifacts.",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 8),
		}),
	}

	for _, c := range []prometheus.Collector{m.exports, m.duration, m.size} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(outcome string, elapsed time.Duration, size int) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if size > 0 {
		m.size.Observe(float64(size))
	}
}
