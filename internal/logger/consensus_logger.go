package logger

import (
	"github.com/sirupsen/logrus"
)

// ConsensusLogger provides dedicated logging for consensus calculations.
type ConsensusLogger struct {
	*logrus.Entry
}

// NewConsensusLogger creates a new consensus logger.
func NewConsensusLogger(baseLogger *logrus.Logger) *ConsensusLogger {
	return &ConsensusLogger{
		Entry: baseLogger.WithField("component", "consensus"),
	}
}

// LogConsensus logs a computed consensus.
func (cl *ConsensusLogger) LogConsensus(target, weighting string, supplied, contributing int, primaryPct, confidence float64, predicted string) {
	cl.WithFields(logrus.Fields{
		"target":       target,
		"weighting":    weighting,
		"supplied":     supplied,
		"contributing": contributing,
		"primary_pct":  primaryPct,
		"confidence":   confidence,
		"predicted":    predicted,
	}).Info("Consensus computed")
}

// LogInsufficientData logs a consensus request with no usable predictions.
func (cl *ConsensusLogger) LogInsufficientData(target string, supplied int) {
	cl.WithFields(logrus.Fields{
		"target":   target,
		"supplied": supplied,
	}).Warn("Consensus rejected: no usable predictions")
}
