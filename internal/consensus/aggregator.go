// Package consensus combines independent model predictions for one matchup into a single call.
package consensus

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/edgeboard/internal/models"
)

// ErrInsufficientData is returned when no prediction can contribute to a consensus
var ErrInsufficientData = errors.New("insufficient data for consensus")

// Target is the outcome a set of predictions is about
type Target string

// Targets
const (
	TargetMoneyline Target = "moneyline"
	TargetSpread    Target = "spread_cover"
	TargetTotal     Target = "over_under"
)

// ParseTarget resolves a target name
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "moneyline", "ml", "win":
		return TargetMoneyline, nil
	case "spread_cover", "spread", "ats", "cover":
		return TargetSpread, nil
	case "over_under", "total", "ou":
		return TargetTotal, nil
	default:
		return "", fmt.Errorf("unknown consensus target %q", s)
	}
}

// Labels returns the display labels of the primary and opponent sides
func (t Target) Labels() (primary, opponent string) {
	switch t {
	case TargetSpread:
		return "home_cover", "away_cover"
	case TargetTotal:
		return "over", "under"
	default:
		return "home", "away"
	}
}

// Weighting selects how much each contributing model counts
type Weighting string

// Weightings
const (
	EqualWeight      Weighting = "equal"
	SampleSizeWeight Weighting = "sample_size"
)

// ParseWeighting resolves a weighting name; an empty string means equal weighting
func ParseWeighting(s string) (Weighting, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "equal":
		return EqualWeight, nil
	case "sample_size", "games":
		return SampleSizeWeight, nil
	default:
		return "", fmt.Errorf("unknown consensus weighting %q", s)
	}
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithWeighting sets the weighting scheme
func WithWeighting(w Weighting) Option {
	return func(a *Aggregator) {
		a.weighting = w
	}
}

// WithLogger sets the logger used to report skipped predictions
func WithLogger(logger logrus.FieldLogger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// Aggregator computes consensus results. It holds no per-call state and is safe for
// concurrent use.
type Aggregator struct {
	weighting Weighting
	logger    logrus.FieldLogger
	validate  *validator.Validate
}

// NewAggregator creates an aggregator; the default weighting is EqualWeight
func NewAggregator(opts ...Option) *Aggregator {
	silent := logrus.New()
	silent.SetOutput(io.Discard)

	a := &Aggregator{
		weighting: EqualWeight,
		logger:    silent,
		validate:  validator.New(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Weighting returns the configured weighting scheme
func (a *Aggregator) Weighting() Weighting {
	return a.weighting
}

// Aggregate combines the predictions for one target. Predictions with a missing name or
// percentages outside [0,100] are skipped; if none remain ErrInsufficientData is returned.
func (a *Aggregator) Aggregate(target Target, preds []models.ModelPrediction) (*models.ConsensusResult, error) {
	contributing := a.contributing(target, preds)
	if len(contributing) == 0 {
		return nil, fmt.Errorf("%w: %d predictions supplied for %s, none usable", ErrInsufficientData, len(preds), target)
	}

	weights := a.weights(contributing)
	primary := weightedMean(contributing, weights, func(p models.ModelPrediction) float64 { return p.WinPct })
	opponent := weightedMean(contributing, weights, func(p models.ModelPrediction) float64 { return p.OpponentWinPct })

	primaryLabel, opponentLabel := target.Labels()
	result := &models.ConsensusResult{
		Target:             string(target),
		PrimaryPercentage:  primary,
		OpponentPercentage: opponent,
		Confidence:         confidence(contributing),
		Models:             len(contributing),
		PredictedSide:      models.SidePrimary,
		PredictedLabel:     primaryLabel,
	}
	if opponent > primary {
		result.PredictedSide = models.SideOpponent
		result.PredictedLabel = opponentLabel
	}
	return result, nil
}

func (a *Aggregator) contributing(target Target, preds []models.ModelPrediction) []models.ModelPrediction {
	out := make([]models.ModelPrediction, 0, len(preds))
	for i := range preds {
		if err := a.validate.Struct(&preds[i]); err != nil {
			a.logger.WithFields(logrus.Fields{
				"target": target,
				"model":  preds[i].ModelName,
				"error":  err.Error(),
			}).Warn("Skipping invalid model prediction")
			continue
		}
		out = append(out, preds[i])
	}
	return out
}

func (a *Aggregator) weights(preds []models.ModelPrediction) []float64 {
	weights := make([]float64, len(preds))
	total := 0.0
	if a.weighting == SampleSizeWeight {
		for i, p := range preds {
			weights[i] = float64(p.Games)
			total += weights[i]
		}
	}
	// Equal weighting, or sample sizes that carry no information
	if total == 0 {
		for i := range weights {
			weights[i] = 1
		}
	}
	return weights
}

// weightedMean is computed as an offset from the first value so identical inputs
// reproduce that value exactly
func weightedMean(preds []models.ModelPrediction, weights []float64, value func(models.ModelPrediction) float64) float64 {
	base := value(preds[0])
	var offset, total float64
	for i, p := range preds {
		offset += weights[i] * (value(p) - base)
		total += weights[i]
	}
	return base + offset/total
}

// confidence maps the spread of WinPct across models onto 0-100. A population standard
// deviation of values in [0,100] is at most 50, so it is doubled before subtracting.
func confidence(preds []models.ModelPrediction) float64 {
	if len(preds) == 1 && preds[0].Confidence != nil {
		return clamp(*preds[0].Confidence)
	}

	n := float64(len(preds))
	var mean float64
	for _, p := range preds {
		mean += p.WinPct
	}
	mean /= n

	var variance float64
	for _, p := range preds {
		d := p.WinPct - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / n)

	return clamp(100 - 2*stddev)
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

var defaultAggregator = NewAggregator()

// Aggregate combines predictions with equal weighting
func Aggregate(target Target, preds []models.ModelPrediction) (*models.ConsensusResult, error) {
	return defaultAggregator.Aggregate(target, preds)
}
