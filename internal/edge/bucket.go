// Package edge turns model-versus-market disagreement into historical accuracy annotations.
//
// Everything in this package is a pure function of its inputs: no I/O, no clocks and no
// shared mutable state, so it is safe to call from concurrent requests.
package edge

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/yourusername/edgeboard/internal/models"
)

// EdgeType identifies which kind of disagreement a bucket measures
type EdgeType string

// Edge types as stored in the accuracy table
const (
	SpreadEdge    EdgeType = "SPREAD_EDGE"
	OUEdge        EdgeType = "OU_EDGE"
	MoneylineProb EdgeType = "MONEYLINE_PROB"
)

// EdgeTypes lists every edge type in display order
var EdgeTypes = []EdgeType{SpreadEdge, OUEdge, MoneylineProb}

var (
	// 0.5 point grid for spread and total edges
	pointSteps = decimal.NewFromInt(2)

	// 0.05 grid for moneyline probabilities
	probabilitySteps = decimal.NewFromInt(20)

	half = decimal.NewFromFloat(0.5)
)

// ParseEdgeType resolves an edge type string from the accuracy table.
// Matching is case-insensitive and accepts short aliases.
func ParseEdgeType(s string) (EdgeType, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SPREAD_EDGE", "SPREAD":
		return SpreadEdge, true
	case "OU_EDGE", "OU", "TOTAL", "OVER_UNDER":
		return OUEdge, true
	case "MONEYLINE_PROB", "MONEYLINE", "ML":
		return MoneylineProb, true
	default:
		return "", false
	}
}

// steps returns how many buckets fit in one unit for the edge type
func (t EdgeType) steps() decimal.Decimal {
	if t == MoneylineProb {
		return probabilitySteps
	}
	return pointSteps
}

// BucketKey is a discretized edge value held in canonical decimal form.
// Two keys are equal exactly when their String forms are equal.
type BucketKey struct {
	value decimal.Decimal
}

// NewBucketKey wraps a stored bucket value without rounding it
func NewBucketKey(v float64) BucketKey {
	return BucketKey{value: decimal.NewFromFloat(v)}
}

// Float64 returns the bucket as a float
func (k BucketKey) Float64() float64 {
	return k.value.InexactFloat64()
}

// String returns the canonical form used as the index key
func (k BucketKey) String() string {
	return k.value.String()
}

// MarshalJSON encodes the key as a JSON number
func (k BucketKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.Float64())
}

// onGrid reports whether the key is a multiple of the edge type's bucket width
func (k BucketKey) onGrid(t EdgeType) bool {
	scaled := k.value.Mul(t.steps())
	return scaled.Equal(scaled.Floor())
}

// roundToGrid rounds half-up on the scaled value: floor(v*steps + 0.5) / steps
func roundToGrid(v decimal.Decimal, steps decimal.Decimal) BucketKey {
	return BucketKey{value: v.Mul(steps).Add(half).Floor().Div(steps)}
}

func decimalValue(v *float64) (decimal.Decimal, bool) {
	f, ok := models.Value(v)
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

// spreadDiff returns market - fair for the home side
func spreadDiff(fairSpread, marketSpread *float64) (decimal.Decimal, bool) {
	fair, ok := decimalValue(fairSpread)
	if !ok {
		return decimal.Zero, false
	}
	market, ok := decimalValue(marketSpread)
	if !ok {
		return decimal.Zero, false
	}
	return market.Sub(fair), true
}

// totalDiff returns fair - market; positive means the model leans Over
func totalDiff(fairTotal, marketTotal *float64) (decimal.Decimal, bool) {
	fair, ok := decimalValue(fairTotal)
	if !ok {
		return decimal.Zero, false
	}
	market, ok := decimalValue(marketTotal)
	if !ok {
		return decimal.Zero, false
	}
	return fair.Sub(market), true
}

// maxProbability treats missing probabilities as 0
func maxProbability(homeWinProb, awayWinProb *float64) decimal.Decimal {
	home, _ := decimalValue(homeWinProb)
	away, _ := decimalValue(awayWinProb)
	return decimal.Max(home, away)
}

// SpreadBucket buckets the unsigned disagreement between the model's fair home spread
// and the market home spread, rounded to the nearest 0.5.
// It returns false when either input is missing.
func SpreadBucket(fairSpread, marketSpread *float64) (BucketKey, bool) {
	diff, ok := spreadDiff(fairSpread, marketSpread)
	if !ok {
		return BucketKey{}, false
	}
	return roundToGrid(diff.Abs(), pointSteps), true
}

// OUBucket buckets the signed disagreement fair total - market total, rounded to the
// nearest 0.5. The sign is kept because Over and Under buckets are tracked separately.
func OUBucket(fairTotal, marketTotal *float64) (BucketKey, bool) {
	diff, ok := totalDiff(fairTotal, marketTotal)
	if !ok {
		return BucketKey{}, false
	}
	return roundToGrid(diff, pointSteps), true
}

// MoneylineBucket buckets the larger of the two win probabilities to the nearest 0.05.
// Missing probabilities count as 0; it returns false when neither side is positive.
func MoneylineBucket(homeWinProb, awayWinProb *float64) (BucketKey, bool) {
	p := maxProbability(homeWinProb, awayWinProb)
	if !p.IsPositive() {
		return BucketKey{}, false
	}
	return roundToGrid(p, probabilitySteps), true
}
