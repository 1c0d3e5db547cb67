package narrative

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess   = "success"
	outcomeError     = "error"
	outcomeMalformed = "malformed"
)

var (
	requestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "analysis_service",
		Subsystem: "narrative",
		Name:      "requests_total",
		Help:      "Number of narrative completion requests, labeled by outcome.",
	}, []string{"outcome"})

	requestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "analysis_service",
		Subsystem: "narrative",
		Name:      "request_duration_seconds",
		Help:      "Latency of narrative completion requests.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
	})
)

func init() {
	prometheus.MustRegister(requestCounter, requestDuration)
}

func recordRequest(outcome string, duration time.Duration) {
	requestCounter.WithLabelValues(outcome).Inc()
	requestDuration.Observe(duration.Seconds())
}
