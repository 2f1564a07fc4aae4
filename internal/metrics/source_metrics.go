package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backend and cache metrics
var (
	SourceRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_requests_total",
		Help:      "Backend requests by table and status",
	}, []string{"table", "status"})

	SourceRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "source_request_duration_seconds",
		Help:      "Backend request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"table"})

	CircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of backend circuit breaker trips",
	})

	CacheOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_operations_total",
		Help:      "Cache operations by cache, operation and result",
	}, []string{"cache", "operation", "result"})
)

// RecordSourceRequest records one backend request.
func RecordSourceRequest(table, status string, durationSeconds float64) {
	SourceRequestsTotal.WithLabelValues(table, status).Inc()
	SourceRequestDuration.WithLabelValues(table).Observe(durationSeconds)
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip() {
	CircuitBreakerTripsTotal.Inc()
}

// RecordCacheOperation records a cache hit, miss, write or error.
func RecordCacheOperation(cache, operation, result string) {
	CacheOperationsTotal.WithLabelValues(cache, operation, result).Inc()
}
