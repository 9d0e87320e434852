package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// SearchMetrics counts searches and records their cost.
type SearchMetrics struct {
	searches   *prometheus.CounterVec
	duration   prometheus.Histogram
	iterations prometheus.Histogram
}

// NewSearchMetrics creates the search collectors under namespace and
// registers them with reg.
func NewSearchMetrics(namespace string, reg prometheus.Registerer) *SearchMetrics {
	m := &SearchMetrics{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Number of searches by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Time spent narrowing the interval.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_iterations",
			Help:      "Iterations needed to reach the tolerance.",
			Buckets:   prometheus.LinearBuckets(0, 50, 12),
		}),
	}
	reg.MustRegister(m.searches, m.duration, m.iterations)
	return m
}

// Observe records one search.
func (m *SearchMetrics) Observe(outcome string, d time.Duration, iterations int) {
	m.searches.WithLabelValues(outcome).Inc()
	if outcome == OutcomeRejected {
		return
	}
	m.duration.Observe(d.Seconds())
	m.iterations.Observe(float64(iterations))
}
