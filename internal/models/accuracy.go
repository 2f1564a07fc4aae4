package models

// AccuracyBucketRow represents one row of the precomputed edge-bucket accuracy table
type AccuracyBucketRow struct {
	EdgeType    string  `db:"edge_type" json:"edge_type"`
	Bucket      float64 `db:"bucket" json:"bucket"`
	Games       int     `db:"games" json:"games"`
	Correct     int     `db:"correct" json:"correct"`
	AccuracyPct float64 `db:"accuracy_pct" json:"accuracy_pct"`
	// Incomplete marks a row whose games, correct or accuracy_pct was null at the source.
	// The zero values it carries are not outcomes and the row is never indexed.
	Incomplete bool `db:"-" json:"incomplete,omitempty"`
}

// NewAccuracyBucketRow builds a row from nullable source columns
func NewAccuracyBucketRow(edgeType string, bucket float64, games, correct, accuracyPct *float64) AccuracyBucketRow {
	row := AccuracyBucketRow{EdgeType: edgeType, Bucket: bucket}
	if games == nil || correct == nil || accuracyPct == nil {
		row.Incomplete = true
		return row
	}
	row.Games = int(*games)
	row.Correct = int(*correct)
	row.AccuracyPct = *accuracyPct
	return row
}

// AccuracyStat is the historical outcome record for one edge bucket
type AccuracyStat struct {
	Games       int     `json:"games"`
	Correct     int     `json:"correct"`
	AccuracyPct float64 `json:"accuracy_pct"`
}

// Losses returns the number of incorrect calls in the bucket
func (s *AccuracyStat) Losses() int {
	return s.Games - s.Correct
}
