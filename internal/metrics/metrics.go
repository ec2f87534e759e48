// Package metrics registers Prometheus collectors for the analysis
// pipeline. Exposition is left to whatever layer embeds this module; the
// collectors register against the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	analysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rxscan_analyses_total",
			Help: "Total number of prescription analyses by outcome status",
		},
		[]string{"status"},
	)

	analysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rxscan_analysis_duration_seconds",
			Help:    "End-to-end prescription analysis duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
	)

	passFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rxscan_ocr_pass_failures_total",
			Help: "Total number of absorbed single-pass OCR failures",
		},
	)

	medicationsFound = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rxscan_medications_found",
			Help:    "Number of medications resolved per analysis",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		},
	)

	accuracyScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rxscan_accuracy_score",
			Help:    "Final confidence score per analysis (0-99.9)",
			Buckets: []float64{0, 10, 25, 35, 50, 70, 80, 90, 99.9},
		},
	)
)

// ObserveAnalysis records the outcome of one pipeline invocation.
func ObserveAnalysis(status string, seconds float64, medications int, score float64) {
	analysesTotal.WithLabelValues(status).Inc()
	analysisDuration.Observe(seconds)
	medicationsFound.Observe(float64(medications))
	accuracyScore.Observe(score)
}

// ObservePassFailure records one absorbed OCR pass failure.
func ObservePassFailure() {
	passFailuresTotal.Inc()
}
