package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/edgeboard/internal/edge"
	"github.com/yourusername/edgeboard/internal/models"
	"github.com/yourusername/edgeboard/internal/service"
)

func TestResolveDate(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 02:30 UTC on the 16th is still the 15th in New York
	now := time.Date(2024, 1, 16, 2, 30, 0, 0, time.UTC)

	date, err := resolveDate("", ny, now)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15", date.Format(models.DateLayout))

	date, err = resolveDate("2023-11-04", ny, now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 11, 4, 0, 0, 0, 0, time.UTC), date)

	_, err = resolveDate("11/04/2023", ny, now)
	assert.ErrorIs(t, err, models.ErrInvalidDate)
}

func TestReadPredictions(t *testing.T) {
	body := `[{"model_name":"elo","win_pct":0.6,"opponent_win_pct":0.4,"games":120},
	          {"model_name":"ridge","win_pct":0.55,"opponent_win_pct":0.45}]`

	t.Run("stdin", func(t *testing.T) {
		preds, err := readPredictions("-", strings.NewReader(body))
		require.NoError(t, err)
		require.Len(t, preds, 2)
		assert.Equal(t, "elo", preds[0].ModelName)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "preds.json")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

		preds, err := readPredictions(path, nil)
		require.NoError(t, err)
		assert.Len(t, preds, 2)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := readPredictions("-", strings.NewReader(`{"model_name":`))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readPredictions(filepath.Join(t.TempDir(), "nope.json"), nil)
		assert.Error(t, err)
	})
}

func TestPrintBoard(t *testing.T) {
	idx := edge.BuildIndex([]models.AccuracyBucketRow{
		{EdgeType: string(edge.SpreadEdge), Bucket: 2.5, Games: 40, Correct: 26, AccuracyPct: 65},
	})
	game := &models.Game{
		ID:              "g1",
		AwayTeam:        "BOS",
		HomeTeam:        "NYK",
		GameDate:        "2024-01-15",
		GameTime:        "19:30",
		VegasHomeSpread: models.Float(-3),
		FairHomeSpread:  models.Float(-5.5),
	}

	board := &service.Board{
		Sport: models.SportNBA,
		Date:  "2024-01-15",
		Sort:  edge.SortTime,
		Games: []edge.EnrichedGame{edge.Enrich(game, nil, idx)},
	}

	var buf bytes.Buffer
	require.NoError(t, printBoard(&buf, board))

	out := buf.String()
	assert.Contains(t, out, "BOS @ NYK")
	assert.Contains(t, out, "2.5 (home)")
	assert.Contains(t, out, "65.0% 26-14")
	assert.Contains(t, out, "run=-")
}
