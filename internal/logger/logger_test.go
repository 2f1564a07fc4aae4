package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLogger(t *testing.T) {
	log := NewLogger("debug", "production")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = NewLogger("nonsense", "development")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestEdgeLoggerIndexBuild(t *testing.T) {
	log, buf := setupTestLogger()
	edgeLogger := NewEdgeLogger(log)

	edgeLogger.LogIndexBuild("nba", "snap-1", "postgres", 120, 118, 2, 0, 0, 4.2)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "edge", logEntry["component"])
	assert.Equal(t, "nba", logEntry["sport"])
	assert.Equal(t, float64(2), logEntry["duplicates"])
	assert.Equal(t, "warning", logEntry["level"])
}

func TestEdgeLoggerCleanIndexBuild(t *testing.T) {
	log, buf := setupTestLogger()
	NewEdgeLogger(log).LogIndexBuild("cfb", "snap-2", "redis", 40, 40, 0, 0, 0, 1.1)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "info", logEntry["level"])
	assert.Equal(t, "redis", logEntry["origin"])
}

func TestEdgeLoggerBoard(t *testing.T) {
	log, buf := setupTestLogger()
	NewEdgeLogger(log).LogBoard("ncaab", "2025-02-01", "spread_accuracy", "run-9", 48, 45, 30)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "spread_accuracy", logEntry["sort"])
	assert.Equal(t, float64(48), logEntry["games"])
}

func TestEdgeLoggerRefreshFailure(t *testing.T) {
	log, buf := setupTestLogger()
	NewEdgeLogger(log).LogRefreshFailure("nfl", errors.New("connection refused"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "connection refused", logEntry["error"])
	assert.Equal(t, "error", logEntry["level"])
}

func TestConsensusLogger(t *testing.T) {
	log, buf := setupTestLogger()
	consensusLogger := NewConsensusLogger(log)

	consensusLogger.LogConsensus("moneyline", "equal", 3, 2, 64.5, 91.0, "home")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "consensus", logEntry["component"])
	assert.Equal(t, float64(2), logEntry["contributing"])
	assert.Equal(t, "home", logEntry["predicted"])
}

func TestConsensusLoggerInsufficientData(t *testing.T) {
	log, buf := setupTestLogger()
	NewConsensusLogger(log).LogInsufficientData("over_under", 0)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "over_under", logEntry["target"])
}

func TestSourceLogger(t *testing.T) {
	log, buf := setupTestLogger()
	NewSourceLogger(log).LogCircuitBreakerEvent("open", 5)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "source", logEntry["component"])
	assert.Equal(t, "open", logEntry["state"])
}

func BenchmarkEdgeLoggerBoard(b *testing.B) {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	edgeLogger := NewEdgeLogger(log)

	for i := 0; i < b.N; i++ {
		edgeLogger.LogBoard("nba", "2025-01-10", "time", "run-1", 12, 12, 9)
	}
}
