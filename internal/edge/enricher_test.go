package edge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/edgeboard/internal/models"
)

func TestEnrichAttachesSpreadAccuracy(t *testing.T) {
	idx := BuildIndex([]models.AccuracyBucketRow{
		{EdgeType: "SPREAD_EDGE", Bucket: 1.5, Games: 40, Correct: 25, AccuracyPct: 62.5},
	})
	game := &models.Game{
		ID:              "g1",
		Sport:           models.SportNBA,
		GameDate:        "2025-01-10",
		GameTime:        "19:30",
		VegasHomeSpread: models.Float(-3.5),
		FairHomeSpread:  models.Float(-2.0),
	}

	enriched := Enrich(game, nil, idx)

	require.NotNil(t, enriched.SpreadAccuracy)
	assert.Equal(t, 40, enriched.SpreadAccuracy.Games)
	assert.Equal(t, 62.5, enriched.SpreadAccuracy.AccuracyPct)

	require.True(t, enriched.SpreadEdge.Known())
	assert.Equal(t, "1.5", enriched.SpreadEdge.Bucket.String())
	require.NotNil(t, enriched.SpreadEdge.Magnitude)
	assert.Equal(t, 1.5, *enriched.SpreadEdge.Magnitude)
	assert.Equal(t, SideAway, enriched.SpreadPick)

	// No total or probabilities on the game
	assert.False(t, enriched.OUEdge.Known())
	assert.Nil(t, enriched.OUAccuracy)
	assert.False(t, enriched.MoneylineEdge.Known())
	assert.Nil(t, enriched.MoneylineAccuracy)
	assert.Equal(t, SideNone, enriched.OUPick)
	assert.Equal(t, SideNone, enriched.MoneylinePick)
}

func TestEnrichPrefersPredictionValues(t *testing.T) {
	idx := BuildIndex([]models.AccuracyBucketRow{
		{EdgeType: "SPREAD_EDGE", Bucket: 3.0, Games: 18, Correct: 11, AccuracyPct: 61.1},
		{EdgeType: "OU_EDGE", Bucket: -1.5, Games: 25, Correct: 14, AccuracyPct: 56.0},
		{EdgeType: "MONEYLINE_PROB", Bucket: 0.7, Games: 90, Correct: 63, AccuracyPct: 70.0},
	})
	game := &models.Game{
		ID:              "g2",
		VegasHomeSpread: models.Float(-6.5),
		VegasTotal:      models.Float(221.5),
		FairHomeSpread:  models.Float(-1.0),
		HomeWinProb:     models.Float(0.2),
	}
	latest := &models.LatestPrediction{
		RunID:          "run-7",
		GameID:         "g2",
		FairHomeSpread: models.Float(-9.5),
		FairTotal:      models.Float(220.0),
		HomeWinProb:    models.Float(0.69),
		AwayWinProb:    models.Float(0.31),
	}

	enriched := Enrich(game, latest, idx)
	assert.Equal(t, "run-7", enriched.PredictionRunID)

	// Fair spread comes from the prediction, market spread falls back to the game
	assert.Equal(t, -9.5, *enriched.Lines.FairSpread)
	assert.Equal(t, -6.5, *enriched.Lines.MarketSpread)
	require.NotNil(t, enriched.SpreadAccuracy)
	assert.Equal(t, 61.1, enriched.SpreadAccuracy.AccuracyPct)
	assert.Equal(t, SideHome, enriched.SpreadPick)

	require.NotNil(t, enriched.OUAccuracy)
	assert.Equal(t, "-1.5", enriched.OUEdge.Bucket.String())
	assert.Equal(t, SideUnder, enriched.OUPick)

	require.NotNil(t, enriched.MoneylineAccuracy)
	assert.Equal(t, "0.7", enriched.MoneylineEdge.Bucket.String())
	assert.Equal(t, SideHome, enriched.MoneylinePick)
}

func TestEnrichMissingDataYieldsNil(t *testing.T) {
	idx := BuildIndex(sampleRows())
	game := &models.Game{ID: "bare", GameDate: "2025-01-10"}

	enriched := Enrich(game, nil, idx)

	for _, et := range EdgeTypes {
		assert.False(t, enriched.Edge(et).Known(), string(et))
		assert.Nil(t, enriched.Edge(et).Magnitude, string(et))
		assert.Nil(t, enriched.Accuracy(et), string(et))
	}
}

func TestEnrichLookupMiss(t *testing.T) {
	idx := BuildIndex(sampleRows())
	game := &models.Game{
		ID:         "g3",
		VegasTotal: models.Float(210.0),
		FairTotal:  models.Float(219.0),
	}

	enriched := Enrich(game, nil, idx)

	// Edge computed, no historical row for it
	require.True(t, enriched.OUEdge.Known())
	assert.Equal(t, "9", enriched.OUEdge.Bucket.String())
	assert.Nil(t, enriched.OUAccuracy)
	assert.Equal(t, SideOver, enriched.OUPick)
}

func TestEnrichWithNilIndex(t *testing.T) {
	game := &models.Game{
		ID:              "g4",
		VegasHomeSpread: models.Float(-3.5),
		FairHomeSpread:  models.Float(-2.0),
	}

	enriched := Enrich(game, nil, nil)
	assert.True(t, enriched.SpreadEdge.Known())
	assert.Nil(t, enriched.SpreadAccuracy)
}

func TestMoneylinePickNeedsBothSides(t *testing.T) {
	game := &models.Game{ID: "g5", HomeWinProb: models.Float(0.64)}

	enriched := Enrich(game, nil, nil)
	assert.True(t, enriched.MoneylineEdge.Known())
	assert.Equal(t, SideNone, enriched.MoneylinePick)
}

func TestEnrichAll(t *testing.T) {
	idx := BuildIndex(sampleRows())
	games := []*models.Game{
		{ID: "a", VegasHomeSpread: models.Float(-3.5), FairHomeSpread: models.Float(-2.0)},
		nil,
		{ID: "b"},
	}
	predictions := map[string]*models.LatestPrediction{
		"b": {GameID: "b", HomeWinProb: models.Float(0.61), AwayWinProb: models.Float(0.39)},
	}

	enriched := EnrichAll(games, predictions, idx)
	require.Len(t, enriched, 2)

	assert.Equal(t, "a", enriched[0].Game.ID)
	require.NotNil(t, enriched[0].SpreadAccuracy)
	assert.Equal(t, 62.5, enriched[0].SpreadAccuracy.AccuracyPct)

	assert.Equal(t, "b", enriched[1].Game.ID)
	require.NotNil(t, enriched[1].MoneylineAccuracy)
	assert.Equal(t, 120, enriched[1].MoneylineAccuracy.Games)
}
