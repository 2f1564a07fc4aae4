package models

import (
	"math"
	"time"
)

// Sport identifies a league handled by the board
type Sport string

// Supported sports
const (
	SportNBA   Sport = "nba"
	SportNCAAB Sport = "ncaab"
	SportNFL   Sport = "nfl"
	SportCFB   Sport = "cfb"
)

// DateLayout is the layout of Game.GameDate and board request dates
const DateLayout = "2006-01-02"

// Game represents one scheduled matchup as supplied by the backend.
// Numeric fields are nullable; a nil or NaN value means the source did not supply it.
type Game struct {
	ID       string `db:"game_id" json:"game_id" validate:"required"`
	Sport    Sport  `db:"sport" json:"sport"`
	AwayTeam string `db:"away_team" json:"away_team"`
	HomeTeam string `db:"home_team" json:"home_team"`
	GameDate string `db:"game_date" json:"game_date"`
	GameTime string `db:"game_time" json:"game_time"`

	// Market lines
	VegasHomeSpread    *float64 `db:"vegas_home_spread" json:"vegas_home_spread"`
	VegasTotal         *float64 `db:"vegas_total" json:"vegas_total"`
	VegasHomeMoneyline *float64 `db:"vegas_home_moneyline" json:"vegas_home_moneyline"`
	VegasAwayMoneyline *float64 `db:"vegas_away_moneyline" json:"vegas_away_moneyline"`

	// Model fair values
	FairHomeSpread *float64 `db:"fair_home_spread" json:"fair_home_spread"`
	FairTotal      *float64 `db:"fair_total" json:"fair_total"`

	// Model probabilities (0-1)
	HomeWinProb   *float64 `db:"home_win_prob" json:"home_win_prob"`
	AwayWinProb   *float64 `db:"away_win_prob" json:"away_win_prob"`
	HomeCoverProb *float64 `db:"home_cover_prob" json:"home_cover_prob"`
	OverProb      *float64 `db:"over_prob" json:"over_prob"`
}

// Kickoff returns the sortable "date time" key for the game
func (g *Game) Kickoff() string {
	if g.GameTime == "" {
		return g.GameDate
	}
	return g.GameDate + " " + g.GameTime
}

// ScheduledOn reports whether the game is scheduled on the given day
func (g *Game) ScheduledOn(day time.Time) bool {
	return g.GameDate == day.Format(DateLayout)
}

// Float returns a pointer to v, for building games in code
func Float(v float64) *float64 {
	return &v
}

// Value returns the dereferenced value and whether it is usable (non-nil and finite)
func Value(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}
