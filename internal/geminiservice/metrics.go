package geminiservice

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome says whether a result came from the AI service or is the
// built-in fallback.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeDegraded Outcome = "degraded"
)

const (
	opRecommend = "recommend"
	opPlaces    = "places"
)

var (
	aiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lunchgenius_ai_requests_total",
		Help: "AI service calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	aiDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lunchgenius_ai_request_duration_seconds",
		Help:    "AI service call latency by operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

func observe(op string, outcome Outcome, seconds float64) {
	aiRequests.WithLabelValues(op, string(outcome)).Inc()
	aiDuration.WithLabelValues(op).Observe(seconds)
}
