package metrics

import "github.com/prometheus/client_golang/prometheus"

// Index metrics
var (
	IndexRefreshesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "index_refreshes_total",
		Help:      "Total number of accuracy index refreshes by sport, origin and outcome",
	}, []string{"sport", "origin", "outcome"})

	IndexRefreshDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "index_refresh_duration_seconds",
		Help:      "Duration of accuracy index refreshes in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"sport"})

	IndexBuckets = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "index_buckets",
		Help:      "Number of distinct buckets in the current accuracy index",
	}, []string{"sport"})

	IndexSkippedRowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "index_skipped_rows_total",
		Help:      "Accuracy rows that were duplicates, unknown, invalid or off-grid",
	}, []string{"sport", "reason"})

	AccuracyLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "accuracy_lookups_total",
		Help:      "Accuracy lookups by edge type and result (hit, miss, no_edge)",
	}, []string{"sport", "edge_type", "result"})
)

// RecordIndexRefresh records a successful index refresh.
func RecordIndexRefresh(sport, origin string, buckets int, durationSeconds float64) {
	IndexRefreshesTotal.WithLabelValues(sport, origin, "ok").Inc()
	IndexRefreshDuration.WithLabelValues(sport).Observe(durationSeconds)
	IndexBuckets.WithLabelValues(sport).Set(float64(buckets))
}

// RecordIndexRefreshFailure records a failed index refresh.
func RecordIndexRefreshFailure(sport, origin string) {
	IndexRefreshesTotal.WithLabelValues(sport, origin, "error").Inc()
}

// RecordSkippedRows records rows the index builder did not use cleanly.
func RecordSkippedRows(sport, reason string, count int) {
	if count <= 0 {
		return
	}
	IndexSkippedRowsTotal.WithLabelValues(sport, reason).Add(float64(count))
}

// RecordAccuracyLookup records the result of one accuracy lookup.
func RecordAccuracyLookup(sport, edgeType, result string) {
	AccuracyLookupsTotal.WithLabelValues(sport, edgeType, result).Inc()
}
