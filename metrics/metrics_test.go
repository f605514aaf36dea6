package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestQueryMetricsRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewQueryMetrics("reviewbot", reg)

	m.ObserveOutcome("succeeded")
	m.ObserveOutcome("succeeded")
	m.ObserveOutcome("failed")
	m.ObserveStage(StageExtract, 120*time.Millisecond)
	m.ObserveReviews(3)

	if got := testutil.ToFloat64(m.queries.WithLabelValues("succeeded")); got != 2 {
		t.Errorf("succeeded count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.queries.WithLabelValues("failed")); got != 1 {
		t.Errorf("failed count = %v, want 1", got)
	}

	expected := `
# HELP reviewbot_reviews_per_query Number of reviews extracted from each product page
# TYPE reviewbot_reviews_per_query histogram
reviewbot_reviews_per_query_bucket{le="1"} 0
reviewbot_reviews_per_query_bucket{le="2"} 0
reviewbot_reviews_per_query_bucket{le="4"} 1
reviewbot_reviews_per_query_bucket{le="8"} 1
reviewbot_reviews_per_query_bucket{le="16"} 1
reviewbot_reviews_per_query_bucket{le="32"} 1
reviewbot_reviews_per_query_bucket{le="64"} 1
reviewbot_reviews_per_query_bucket{le="128"} 1
reviewbot_reviews_per_query_bucket{le="256"} 1
reviewbot_reviews_per_query_bucket{le="512"} 1
reviewbot_reviews_per_query_bucket{le="+Inf"} 1
reviewbot_reviews_per_query_sum 3
reviewbot_reviews_per_query_count 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "reviewbot_reviews_per_query"); err != nil {
		t.Errorf("unexpected reviews histogram: %v", err)
	}

	if n := testutil.CollectAndCount(m.stageDuration); n != 1 {
		t.Errorf("stage duration series = %d, want 1", n)
	}
}

func TestQueryMetricsNilSafe(t *testing.T) {
	var m *QueryMetrics
	m.ObserveOutcome("failed")
	m.ObserveStage(StageScore, time.Second)
	m.ObserveReviews(1)
}

func TestNewQueryMetricsDuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewQueryMetrics("reviewbot", reg)

	defer func() {
		if recover() == nil {
			t.Error("Expected panic on duplicate registration")
		}
	}()
	NewQueryMetrics("reviewbot", reg)
}
