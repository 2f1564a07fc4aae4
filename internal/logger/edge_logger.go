package logger

import (
	"github.com/sirupsen/logrus"
)

// EdgeLogger provides dedicated logging for index builds and board enrichment.
type EdgeLogger struct {
	*logrus.Entry
}

// NewEdgeLogger creates a new edge logger.
func NewEdgeLogger(baseLogger *logrus.Logger) *EdgeLogger {
	return &EdgeLogger{
		Entry: baseLogger.WithField("component", "edge"),
	}
}

// LogIndexBuild logs an accuracy index rebuild.
func (el *EdgeLogger) LogIndexBuild(sport, snapshotID, origin string, rows, indexed, duplicates, skipped, offGrid int, durationMs float64) {
	entry := el.WithFields(logrus.Fields{
		"sport":       sport,
		"snapshot_id": snapshotID,
		"origin":      origin,
		"rows":        rows,
		"indexed":     indexed,
		"duplicates":  duplicates,
		"skipped":     skipped,
		"off_grid":    offGrid,
		"duration_ms": durationMs,
	})
	if duplicates > 0 || skipped > 0 || offGrid > 0 {
		entry.Warn("Accuracy index built with inconsistent rows")
		return
	}
	entry.Info("Accuracy index built")
}

// LogBoard logs a board request.
func (el *EdgeLogger) LogBoard(sport, date, sortMode, runID string, games, withPrediction, withAccuracy int) {
	el.WithFields(logrus.Fields{
		"sport":           sport,
		"date":            date,
		"sort":            sortMode,
		"run_id":          runID,
		"games":           games,
		"with_prediction": withPrediction,
		"with_accuracy":   withAccuracy,
	}).Info("Board enriched")
}

// LogRefreshFailure logs a failed index refresh.
func (el *EdgeLogger) LogRefreshFailure(sport string, err error) {
	el.WithFields(logrus.Fields{
		"sport": sport,
		"error": err.Error(),
	}).Error("Accuracy index refresh failed")
}
