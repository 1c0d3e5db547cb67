// Package observability exposes Prometheus collectors shared across transports.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	analysesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "analysis_service",
		Name:      "analyses_total",
		Help:      "Number of completed analyses, labeled by entry point and resulting risk level.",
	}, []string{"source", "status"})

	analysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "analysis_service",
		Name:      "analysis_duration_seconds",
		Help:      "Time spent computing metrics, evaluating risk, and generating narrative.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})

	runsAnalyzedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "analysis_service",
		Name:      "runs_analyzed_total",
		Help:      "Total number of run records fed into analyses.",
	})

	lastAnalysisGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "analysis_service",
		Name:      "last_analysis_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completed analysis.",
	})
)

func init() {
	prometheus.MustRegister(analysesCounter, analysisDuration, runsAnalyzedCounter, lastAnalysisGauge)
}

// RecordAnalysis tracks one completed analysis and its duration.
func RecordAnalysis(source, status string, duration time.Duration) {
	analysesCounter.WithLabelValues(source, status).Inc()
	analysisDuration.Observe(duration.Seconds())
}

// RecordRunsAnalyzed adds to the running total of analyzed run records.
func RecordRunsAnalyzed(count int) {
	if count <= 0 {
		return
	}
	runsAnalyzedCounter.Add(float64(count))
}

// RecordLastAnalysis updates the analysis watermark gauge.
func RecordLastAnalysis(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastAnalysisGauge.Set(float64(ts.Unix()))
}
