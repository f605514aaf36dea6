package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stage labels
const (
	StageExtract = "extract"
	StageScore   = "score"
)

// QueryMetrics holds the collectors recorded per product query
type QueryMetrics struct {
	queries        *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	reviewsPerPage prometheus.Histogram
}

// NewQueryMetrics creates the query collectors and registers them on reg
func NewQueryMetrics(namespace string, reg prometheus.Registerer) *QueryMetrics {
	m := &QueryMetrics{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Product queries handled, by outcome",
		}, []string{"outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of the extract and score stages",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"stage"}),
		reviewsPerPage: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reviews_per_query",
			Help:      "Number of reviews extracted from each product page",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}

	reg.MustRegister(m.queries, m.stageDuration, m.reviewsPerPage)
	return m
}

// ObserveOutcome counts one finished query
func (m *QueryMetrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(outcome).Inc()
}

// ObserveStage records how long a stage took
func (m *QueryMetrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveReviews records the number of reviews found on a page
func (m *QueryMetrics) ObserveReviews(n int) {
	if m == nil {
		return
	}
	m.reviewsPerPage.Observe(float64(n))
}
