package consensus

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/edgeboard/internal/models"
)

func pred(name string, win, opp float64, games int) models.ModelPrediction {
	return models.ModelPrediction{ModelName: name, WinPct: win, OpponentWinPct: opp, Games: games}
}

func TestAggregateIdenticalModels(t *testing.T) {
	result, err := Aggregate(TargetMoneyline, []models.ModelPrediction{
		pred("elo", 64.3, 35.7, 120),
		pred("xgb", 64.3, 35.7, 80),
	})
	require.NoError(t, err)

	assert.Equal(t, 64.3, result.PrimaryPercentage)
	assert.Equal(t, 35.7, result.OpponentPercentage)
	assert.Equal(t, 100.0, result.Confidence)
	assert.Equal(t, 2, result.Models)
	assert.Equal(t, models.SidePrimary, result.PredictedSide)
	assert.Equal(t, "home", result.PredictedLabel)
	assert.Equal(t, "moneyline", result.Target)
}

func TestAggregateEmptyInput(t *testing.T) {
	result, err := Aggregate(TargetMoneyline, nil)
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.Nil(t, result)

	result, err = Aggregate(TargetTotal, []models.ModelPrediction{})
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.Nil(t, result)
}

func TestAggregateAllInvalid(t *testing.T) {
	result, err := Aggregate(TargetMoneyline, []models.ModelPrediction{
		pred("", 55, 45, 10),
		pred("broken", 140, -40, 10),
		pred("nan", math.NaN(), 50, 10),
	})
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.Nil(t, result)
}

func TestAggregateDisagreement(t *testing.T) {
	result, err := Aggregate(TargetMoneyline, []models.ModelPrediction{
		pred("a", 60, 40, 0),
		pred("b", 70, 30, 0),
	})
	require.NoError(t, err)

	assert.Equal(t, 65.0, result.PrimaryPercentage)
	assert.Equal(t, 35.0, result.OpponentPercentage)
	// stddev 5
	assert.InDelta(t, 90.0, result.Confidence, 1e-9)
}

func TestAggregateConfidenceClamped(t *testing.T) {
	result, err := Aggregate(TargetMoneyline, []models.ModelPrediction{
		pred("always-home", 100, 0, 0),
		pred("always-away", 0, 100, 0),
	})
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, 50.0, result.PrimaryPercentage)
}

func TestAggregateSingleModel(t *testing.T) {
	reported := 72.0
	single := pred("solo", 58, 42, 200)
	single.Confidence = &reported

	result, err := Aggregate(TargetSpread, []models.ModelPrediction{single})
	require.NoError(t, err)
	assert.Equal(t, 72.0, result.Confidence)
	assert.Equal(t, 1, result.Models)
	assert.Equal(t, "home_cover", result.PredictedLabel)

	result, err = Aggregate(TargetSpread, []models.ModelPrediction{pred("solo", 58, 42, 200)})
	require.NoError(t, err)
	assert.Equal(t, 100.0, result.Confidence)
}

func TestAggregateTieResolvesToPrimary(t *testing.T) {
	result, err := Aggregate(TargetTotal, []models.ModelPrediction{
		pred("a", 50, 50, 10),
		pred("b", 50, 50, 10),
	})
	require.NoError(t, err)

	assert.Equal(t, models.SidePrimary, result.PredictedSide)
	assert.Equal(t, "over", result.PredictedLabel)
}

func TestAggregateOpponentSide(t *testing.T) {
	result, err := Aggregate(TargetTotal, []models.ModelPrediction{
		pred("a", 41, 59, 10),
		pred("b", 45, 55, 10),
	})
	require.NoError(t, err)

	assert.Equal(t, models.SideOpponent, result.PredictedSide)
	assert.Equal(t, "under", result.PredictedLabel)
}

func TestAggregateSampleSizeWeighting(t *testing.T) {
	preds := []models.ModelPrediction{
		pred("big", 60, 40, 300),
		pred("small", 70, 30, 100),
	}

	equal, err := NewAggregator().Aggregate(TargetMoneyline, preds)
	require.NoError(t, err)
	assert.Equal(t, 65.0, equal.PrimaryPercentage)

	weighted, err := NewAggregator(WithWeighting(SampleSizeWeight)).Aggregate(TargetMoneyline, preds)
	require.NoError(t, err)
	assert.Equal(t, 62.5, weighted.PrimaryPercentage)
	assert.Equal(t, 37.5, weighted.OpponentPercentage)
	// agreement does not depend on weighting
	assert.Equal(t, equal.Confidence, weighted.Confidence)
}

func TestAggregateSampleSizeWithoutGames(t *testing.T) {
	agg := NewAggregator(WithWeighting(SampleSizeWeight))
	result, err := agg.Aggregate(TargetMoneyline, []models.ModelPrediction{
		pred("a", 60, 40, 0),
		pred("b", 70, 30, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, 65.0, result.PrimaryPercentage)
}

func TestAggregateSkipsInvalidAndLogs(t *testing.T) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	agg := NewAggregator(WithLogger(log))
	result, err := agg.Aggregate(TargetMoneyline, []models.ModelPrediction{
		pred("a", 60, 40, 10),
		pred("bad", 160, 40, 10),
		pred("b", 70, 30, 10),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Models)
	assert.Equal(t, 65.0, result.PrimaryPercentage)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "bad", entry["model"])
	assert.Equal(t, "warning", entry["level"])
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		input   string
		want    Target
		wantErr bool
	}{
		{"moneyline", TargetMoneyline, false},
		{"ML", TargetMoneyline, false},
		{"spread", TargetSpread, false},
		{"spread_cover", TargetSpread, false},
		{"ou", TargetTotal, false},
		{"over_under", TargetTotal, false},
		{"props", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTarget(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseWeighting(t *testing.T) {
	w, err := ParseWeighting("")
	require.NoError(t, err)
	assert.Equal(t, EqualWeight, w)

	w, err = ParseWeighting("sample_size")
	require.NoError(t, err)
	assert.Equal(t, SampleSizeWeight, w)

	_, err = ParseWeighting("bayesian")
	assert.Error(t, err)
}
