package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ImportMetrics instruments the zone import pipeline.
type ImportMetrics struct {
	zonesProcessed *prometheus.CounterVec
	tierMatches    *prometheus.CounterVec
	zoneDuration   prometheus.Histogram
	batchDuration  prometheus.Histogram
}

// NewImportMetrics registers import instruments on the given registerer.
func NewImportMetrics(reg prometheus.Registerer) *ImportMetrics {
	zonesProcessed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "freightrate",
		Subsystem: "zone_import",
		Name:      "zones_total",
		Help:      "Imported zones by outcome.",
	}, []string{"outcome"})

	tierMatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "freightrate",
		Subsystem: "zone_import",
		Name:      "tier_matches_total",
		Help:      "Matched locations by matching tier.",
	}, []string{"tier"})

	zoneDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "freightrate",
		Subsystem: "zone_import",
		Name:      "zone_duration_seconds",
		Help:      "Per-zone resolve and persist latency.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	batchDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "freightrate",
		Subsystem: "zone_import",
		Name:      "batch_duration_seconds",
		Help:      "Per-batch wall time.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	reg.MustRegister(zonesProcessed, tierMatches, zoneDuration, batchDuration)

	return &ImportMetrics{
		zonesProcessed: zonesProcessed,
		tierMatches:    tierMatches,
		zoneDuration:   zoneDuration,
		batchDuration:  batchDuration,
	}
}

func (m *ImportMetrics) ObserveZone(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.zonesProcessed.WithLabelValues(outcome).Inc()
	m.zoneDuration.Observe(d.Seconds())
}

func (m *ImportMetrics) ObserveBatch(d time.Duration) {
	if m == nil {
		return
	}
	m.batchDuration.Observe(d.Seconds())
}

func (m *ImportMetrics) AddTierMatches(tier string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.tierMatches.WithLabelValues(tier).Add(float64(n))
}
