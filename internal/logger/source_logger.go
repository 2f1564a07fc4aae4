package logger

import (
	"github.com/sirupsen/logrus"
)

// SourceLogger provides dedicated logging for backend fetches.
type SourceLogger struct {
	*logrus.Entry
}

// NewSourceLogger creates a new source logger.
func NewSourceLogger(baseLogger *logrus.Logger) *SourceLogger {
	return &SourceLogger{
		Entry: baseLogger.WithField("component", "source"),
	}
}

// LogFetch logs a completed table fetch.
func (sl *SourceLogger) LogFetch(table string, rows int, durationMs float64) {
	sl.WithFields(logrus.Fields{
		"table":       table,
		"rows":        rows,
		"duration_ms": durationMs,
	}).Debug("Fetched rows")
}

// LogRetry logs a retried request.
func (sl *SourceLogger) LogRetry(url string, attempt int) {
	sl.WithFields(logrus.Fields{
		"url":     url,
		"attempt": attempt,
	}).Warn("Retrying backend request")
}

// LogCircuitBreakerEvent logs circuit breaker transitions.
func (sl *SourceLogger) LogCircuitBreakerEvent(state string, consecutiveFailures int) {
	sl.WithFields(logrus.Fields{
		"state":                state,
		"consecutive_failures": consecutiveFailures,
	}).Warn("Circuit breaker state changed")
}
