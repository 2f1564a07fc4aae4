package models

import "time"

// LatestPrediction represents one game's row from the newest prediction run.
// Prediction rows may lag behind newly scheduled games, so any field may be nil.
type LatestPrediction struct {
	RunID     string    `db:"run_id" json:"run_id"`
	GameID    string    `db:"game_id" json:"game_id" validate:"required"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	VegasHomeSpread *float64 `db:"vegas_home_spread" json:"vegas_home_spread"`
	VegasTotal      *float64 `db:"vegas_total" json:"vegas_total"`
	FairHomeSpread  *float64 `db:"fair_home_spread" json:"fair_home_spread"`
	FairTotal       *float64 `db:"fair_total" json:"fair_total"`
	HomeWinProb     *float64 `db:"home_win_prob" json:"home_win_prob"`
	AwayWinProb     *float64 `db:"away_win_prob" json:"away_win_prob"`
	HomeCoverProb   *float64 `db:"home_cover_prob" json:"home_cover_prob"`
	OverProb        *float64 `db:"over_prob" json:"over_prob"`
}

// PredictionRun is a run-scoped snapshot of predictions for a sport
type PredictionRun struct {
	RunID       string              `json:"run_id"`
	Sport       Sport               `json:"sport"`
	CreatedAt   time.Time           `json:"created_at"`
	Predictions []*LatestPrediction `json:"predictions"`
}

// ByGameID indexes the run's predictions by game ID. Later rows win on duplicates.
func (r *PredictionRun) ByGameID() map[string]*LatestPrediction {
	if r == nil {
		return map[string]*LatestPrediction{}
	}
	out := make(map[string]*LatestPrediction, len(r.Predictions))
	for _, p := range r.Predictions {
		if p == nil {
			continue
		}
		out[p.GameID] = p
	}
	return out
}

// ModelPrediction is one model's output for one game and target.
// WinPct is the percentage (0-100) that the primary side wins, covers or goes over.
// OpponentWinPct is reported independently and need not equal 100 - WinPct.
type ModelPrediction struct {
	ModelName      string   `json:"model_name" validate:"required"`
	WinPct         float64  `json:"win_pct" validate:"gte=0,lte=100"`
	OpponentWinPct float64  `json:"opponent_win_pct" validate:"gte=0,lte=100"`
	Games          int      `json:"games" validate:"gte=0"`
	Confidence     *float64 `json:"confidence,omitempty" validate:"omitempty,gte=0,lte=100"`
}
