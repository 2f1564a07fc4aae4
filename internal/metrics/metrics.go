// Package metrics provides centralized Prometheus metrics registry for the edge board.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "edgeboard"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	BoardRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "board_requests_total",
		Help:      "Total number of board requests by sport, sort mode and outcome",
	}, []string{"sport", "sort", "outcome"})

	ConsensusRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "consensus_requests_total",
		Help:      "Total number of consensus calculations by target and outcome",
	}, []string{"target", "outcome"})

	ConsensusSkippedPredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "consensus_skipped_predictions_total",
		Help:      "Model predictions dropped from a consensus as invalid",
	}, []string{"target"})
)

// Histogram metrics
var (
	BoardDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "board_duration_seconds",
		Help:      "Duration of board assembly in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"sport"})

	ConsensusConfidence = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "consensus_confidence",
		Help:      "Agreement score of computed consensus results",
		Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	}, []string{"target"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(BoardRequestsTotal)
		registry.MustRegister(ConsensusRequestsTotal)
		registry.MustRegister(ConsensusSkippedPredictionsTotal)
		registry.MustRegister(BoardDuration)
		registry.MustRegister(ConsensusConfidence)

		// Register index metrics
		registry.MustRegister(IndexRefreshesTotal)
		registry.MustRegister(IndexRefreshDuration)
		registry.MustRegister(IndexBuckets)
		registry.MustRegister(IndexSkippedRowsTotal)
		registry.MustRegister(AccuracyLookupsTotal)

		// Register source metrics
		registry.MustRegister(SourceRequestsTotal)
		registry.MustRegister(SourceRequestDuration)
		registry.MustRegister(CircuitBreakerTripsTotal)
		registry.MustRegister(CacheOperationsTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordBoardRequest records a board request and how long it took.
func RecordBoardRequest(sport, sortMode, outcome string, durationSeconds float64) {
	BoardRequestsTotal.WithLabelValues(sport, sortMode, outcome).Inc()
	BoardDuration.WithLabelValues(sport).Observe(durationSeconds)
}

// RecordConsensus records a successful consensus calculation.
func RecordConsensus(target string, confidence float64, skipped int) {
	ConsensusRequestsTotal.WithLabelValues(target, "ok").Inc()
	ConsensusConfidence.WithLabelValues(target).Observe(confidence)
	if skipped > 0 {
		ConsensusSkippedPredictionsTotal.WithLabelValues(target).Add(float64(skipped))
	}
}

// RecordConsensusFailure records a rejected consensus calculation.
func RecordConsensusFailure(target string, skipped int) {
	ConsensusRequestsTotal.WithLabelValues(target, "insufficient_data").Inc()
	if skipped > 0 {
		ConsensusSkippedPredictionsTotal.WithLabelValues(target).Add(float64(skipped))
	}
}
