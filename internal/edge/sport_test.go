package edge

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/edgeboard/internal/models"
)

func TestParseSport(t *testing.T) {
	sport, err := ParseSport(" NBA ")
	require.NoError(t, err)
	assert.Equal(t, models.SportNBA, sport)

	_, err = ParseSport("cricket")
	assert.ErrorIs(t, err, models.ErrUnknownSport)

	_, err = AdapterFor(models.Sport("mlb"))
	assert.ErrorIs(t, err, models.ErrUnknownSport)
}

func TestDecodeGameCommonFields(t *testing.T) {
	adapter, err := AdapterFor(models.SportNBA)
	require.NoError(t, err)

	game, err := adapter.DecodeGame(map[string]any{
		"game_id":                "0022400512",
		"away_team":              "BOS",
		"home_team":              "NYK",
		"game_date":              "2025-01-10",
		"tipoff_time_et":         "19:30",
		"home_spread":            -3.5,
		"over_under":             "224.5",
		"model_fair_home_spread": json.Number("-2.0"),
		"home_win_prob":          0.58,
		"away_win_prob":          nil,
	})
	require.NoError(t, err)

	assert.Equal(t, "0022400512", game.ID)
	assert.Equal(t, models.SportNBA, game.Sport)
	assert.Equal(t, "2025-01-10 19:30", game.Kickoff())
	assert.Equal(t, -3.5, *game.VegasHomeSpread)
	assert.Equal(t, 224.5, *game.VegasTotal)
	assert.Equal(t, -2.0, *game.FairHomeSpread)
	assert.Equal(t, 0.58, *game.HomeWinProb)
	assert.Nil(t, game.AwayWinProb)
	assert.Nil(t, game.FairTotal)
}

func TestDecodeGameCollegeFootball(t *testing.T) {
	adapter, err := AdapterFor(models.SportCFB)
	require.NoError(t, err)

	game, err := adapter.DecodeGame(map[string]any{
		"id":             401628374,
		"away_team":      "Michigan",
		"home_team":      "Ohio State",
		"start_date":     "2024-11-30T17:00:00.000Z",
		"api_spread":     -20.5,
		"api_over_line":  44.5,
		"pred_spread":    -17.0,
		"pred_over_line": 47.0,
		"pred_ml_proba":  0.75,
	})
	require.NoError(t, err)

	assert.Equal(t, "401628374", game.ID)
	assert.Equal(t, "2024-11-30", game.GameDate)
	assert.Equal(t, "17:00", game.GameTime)
	assert.Equal(t, -20.5, *game.VegasHomeSpread)
	assert.Equal(t, 44.5, *game.VegasTotal)
	assert.Equal(t, -17.0, *game.FairHomeSpread)
	assert.Equal(t, 47.0, *game.FairTotal)
	assert.Equal(t, 0.75, *game.HomeWinProb)
	require.NotNil(t, game.AwayWinProb)
	assert.InDelta(t, 0.25, *game.AwayWinProb, 1e-9)
}

func TestDecodeGameNoComplementOutsideCollegeFootball(t *testing.T) {
	adapter, err := AdapterFor(models.SportNFL)
	require.NoError(t, err)

	game, err := adapter.DecodeGame(map[string]any{
		"training_key":  "2024_12_KC_LV",
		"home_win_prob": 0.81,
		"over_line":     42.5,
	})
	require.NoError(t, err)

	assert.Equal(t, "2024_12_KC_LV", game.ID)
	assert.Equal(t, 42.5, *game.VegasTotal)
	assert.Nil(t, game.AwayWinProb)
}

func TestDecodeGameRequiresID(t *testing.T) {
	adapter, err := AdapterFor(models.SportNCAAB)
	require.NoError(t, err)

	_, err = adapter.DecodeGame(map[string]any{"home_team": "Duke"})
	assert.Error(t, err)
}

func TestDecodeGameSkipsUnparsableNumbers(t *testing.T) {
	adapter, err := AdapterFor(models.SportNCAAB)
	require.NoError(t, err)

	game, err := adapter.DecodeGame(map[string]any{
		"game_id":                 "duke-unc",
		"vegas_home_spread":       "PK?",
		"home_spread":             "-4",
		"pred_home_margin_spread": "NaN",
		"model_fair_home_spread":  -6.0,
		"pred_total_points":       151,
	})
	require.NoError(t, err)

	assert.Equal(t, -4.0, *game.VegasHomeSpread)
	assert.Equal(t, -6.0, *game.FairHomeSpread)
	assert.Equal(t, 151.0, *game.FairTotal)
}

func TestDecodePrediction(t *testing.T) {
	adapter, err := AdapterFor(models.SportNBA)
	require.NoError(t, err)

	pred, err := adapter.DecodePrediction(map[string]any{
		"run_id":                 "run-2025-01-10",
		"game_id":                "0022400512",
		"created_at":             "2025-01-10T14:05:00Z",
		"model_fair_home_spread": -2.0,
		"model_fair_total":       226.0,
	})
	require.NoError(t, err)

	assert.Equal(t, "run-2025-01-10", pred.RunID)
	assert.Equal(t, "0022400512", pred.GameID)
	assert.True(t, pred.CreatedAt.Equal(time.Date(2025, 1, 10, 14, 5, 0, 0, time.UTC)))
	assert.Equal(t, -2.0, *pred.FairHomeSpread)
	assert.Equal(t, 226.0, *pred.FairTotal)
	assert.Nil(t, pred.VegasHomeSpread)
}

func TestRunIDOf(t *testing.T) {
	adapter, err := AdapterFor(models.SportNFL)
	require.NoError(t, err)

	assert.Equal(t, "r7", adapter.RunIDOf(map[string]any{"run_id": "r7", "training_key": "k"}))
	assert.Empty(t, adapter.RunIDOf(map[string]any{"training_key": "k"}))
	assert.Empty(t, adapter.RunIDOf(map[string]any{"run_id": nil}))
}
