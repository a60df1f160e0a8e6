// Package observability provides Prometheus metrics for evaluations, previews, catalogs and exports
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// EvaluationsTotal counts evaluator runs
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datafilters_evaluations_total",
			Help: "Total number of filter evaluations",
		},
		[]string{"dataset", "status"}, // status: success, invalid, failed
	)

	// EvaluationDuration measures evaluator run time in seconds
	EvaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datafilters_evaluation_duration_seconds",
			Help:    "Filter evaluation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"dataset"},
	)

	// RowsMatched counts rows that passed the condition set
	RowsMatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datafilters_rows_matched_total",
			Help: "Total number of rows matching the condition set",
		},
		[]string{"dataset"},
	)

	// ConditionWarnings counts aggregated evaluation warnings
	ConditionWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datafilters_condition_warnings_total",
			Help: "Total number of evaluation warnings raised by conditions and transformations",
		},
		[]string{"dataset"},
	)

	// PreviewDropped counts preview results discarded because a newer request superseded them
	PreviewDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datafilters_preview_dropped_total",
			Help: "Total number of stale preview results dropped",
		},
	)

	// CatalogLookups counts catalog lookups by cache result
	CatalogLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datafilters_catalog_cache_total",
			Help: "Total number of catalog lookups",
		},
		[]string{"result"}, // result: hit, miss, error
	)

	// ExportsEnqueued counts export jobs handed to the queue
	ExportsEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datafilters_exports_enqueued_total",
			Help: "Total number of export jobs enqueued",
		},
		[]string{"format"},
	)
)

// RecordEvaluation records an evaluator run
func RecordEvaluation(dataset, status string, duration float64, matched, warnings int) {
	EvaluationsTotal.WithLabelValues(dataset, status).Inc()
	EvaluationDuration.WithLabelValues(dataset).Observe(duration)
	RowsMatched.WithLabelValues(dataset).Add(float64(matched))
	if warnings > 0 {
		ConditionWarnings.WithLabelValues(dataset).Add(float64(warnings))
	}
}

// RecordPreviewDropped records a stale preview result
func RecordPreviewDropped() {
	PreviewDropped.Inc()
}

// RecordCatalogLookup records a catalog lookup
func RecordCatalogLookup(result string) {
	CatalogLookups.WithLabelValues(result).Inc()
}

// RecordExportEnqueued records an export enqueue
func RecordExportEnqueued(format string) {
	ExportsEnqueued.WithLabelValues(format).Inc()
}
