package edge

import (
	"github.com/shopspring/decimal"

	"github.com/yourusername/edgeboard/internal/models"
)

// Side names the side of a market an edge favors
type Side string

// Sides
const (
	SideNone  Side = ""
	SideHome  Side = "home"
	SideAway  Side = "away"
	SideOver  Side = "over"
	SideUnder Side = "under"
)

// EdgeObservation is one computed edge for one game. Bucket is nil when an input was
// missing; a non-nil Bucket with no matching accuracy row is a lookup miss.
type EdgeObservation struct {
	EdgeType  EdgeType   `json:"edge_type"`
	Magnitude *float64   `json:"magnitude"`
	Bucket    *BucketKey `json:"bucket"`
}

// Known reports whether the edge could be computed
func (o EdgeObservation) Known() bool {
	return o.Bucket != nil
}

// ResolvedLines holds the values an enrichment pass actually used
type ResolvedLines struct {
	MarketSpread *float64 `json:"market_spread"`
	MarketTotal  *float64 `json:"market_total"`
	FairSpread   *float64 `json:"fair_spread"`
	FairTotal    *float64 `json:"fair_total"`
	HomeWinProb  *float64 `json:"home_win_prob"`
	AwayWinProb  *float64 `json:"away_win_prob"`
}

// EnrichedGame is a game annotated with its edges and their historical accuracy
type EnrichedGame struct {
	Game            *models.Game  `json:"game"`
	PredictionRunID string        `json:"prediction_run_id,omitempty"`
	Lines           ResolvedLines `json:"lines"`

	SpreadEdge    EdgeObservation `json:"spread_edge"`
	OUEdge        EdgeObservation `json:"ou_edge"`
	MoneylineEdge EdgeObservation `json:"moneyline_edge"`

	SpreadAccuracy    *models.AccuracyStat `json:"spread_accuracy"`
	OUAccuracy        *models.AccuracyStat `json:"ou_accuracy"`
	MoneylineAccuracy *models.AccuracyStat `json:"moneyline_accuracy"`

	SpreadPick    Side `json:"spread_pick,omitempty"`
	OUPick        Side `json:"ou_pick,omitempty"`
	MoneylinePick Side `json:"moneyline_pick,omitempty"`
}

// Accuracy returns the attached stat for an edge type
func (g EnrichedGame) Accuracy(edgeType EdgeType) *models.AccuracyStat {
	switch edgeType {
	case SpreadEdge:
		return g.SpreadAccuracy
	case OUEdge:
		return g.OUAccuracy
	case MoneylineProb:
		return g.MoneylineAccuracy
	default:
		return nil
	}
}

// Edge returns the observation for an edge type
func (g EnrichedGame) Edge(edgeType EdgeType) EdgeObservation {
	switch edgeType {
	case SpreadEdge:
		return g.SpreadEdge
	case OUEdge:
		return g.OUEdge
	default:
		return g.MoneylineEdge
	}
}

// Enrich computes the three edges for a game, buckets them and attaches the matching
// accuracy rows. Prediction values win over the game's own fields when present, since
// prediction rows may lag behind newly scheduled games. Missing data yields nil buckets
// and nil accuracy, never zeros.
func Enrich(game *models.Game, latest *models.LatestPrediction, idx *AccuracyIndex) EnrichedGame {
	if game == nil {
		return EnrichedGame{}
	}

	lines := resolveLines(game, latest)
	enriched := EnrichedGame{
		Game:  game,
		Lines: lines,
	}
	if latest != nil {
		enriched.PredictionRunID = latest.RunID
	}

	enriched.SpreadEdge = observeSpread(lines)
	enriched.OUEdge = observeTotal(lines)
	enriched.MoneylineEdge = observeMoneyline(lines)

	enriched.SpreadAccuracy = idx.Lookup(SpreadEdge, enriched.SpreadEdge.Bucket)
	enriched.OUAccuracy = idx.Lookup(OUEdge, enriched.OUEdge.Bucket)
	enriched.MoneylineAccuracy = idx.Lookup(MoneylineProb, enriched.MoneylineEdge.Bucket)

	enriched.SpreadPick = spreadPick(lines)
	enriched.OUPick = totalPick(lines)
	enriched.MoneylinePick = moneylinePick(lines)

	return enriched
}

// EnrichAll enriches a slate of games against the predictions of one run
func EnrichAll(games []*models.Game, predictions map[string]*models.LatestPrediction, idx *AccuracyIndex) []EnrichedGame {
	out := make([]EnrichedGame, 0, len(games))
	for _, game := range games {
		if game == nil {
			continue
		}
		out = append(out, Enrich(game, predictions[game.ID], idx))
	}
	return out
}

func resolveLines(game *models.Game, latest *models.LatestPrediction) ResolvedLines {
	if latest == nil {
		latest = &models.LatestPrediction{}
	}
	return ResolvedLines{
		MarketSpread: prefer(latest.VegasHomeSpread, game.VegasHomeSpread),
		MarketTotal:  prefer(latest.VegasTotal, game.VegasTotal),
		FairSpread:   prefer(latest.FairHomeSpread, game.FairHomeSpread),
		FairTotal:    prefer(latest.FairTotal, game.FairTotal),
		HomeWinProb:  prefer(latest.HomeWinProb, game.HomeWinProb),
		AwayWinProb:  prefer(latest.AwayWinProb, game.AwayWinProb),
	}
}

// prefer returns the first usable value
func prefer(values ...*float64) *float64 {
	for _, v := range values {
		if _, ok := models.Value(v); ok {
			return v
		}
	}
	return nil
}

func floatPtr(d decimal.Decimal) *float64 {
	f := d.InexactFloat64()
	return &f
}

func observeSpread(lines ResolvedLines) EdgeObservation {
	obs := EdgeObservation{EdgeType: SpreadEdge}
	diff, ok := spreadDiff(lines.FairSpread, lines.MarketSpread)
	if !ok {
		return obs
	}
	bucket, _ := SpreadBucket(lines.FairSpread, lines.MarketSpread)
	obs.Magnitude = floatPtr(diff.Abs())
	obs.Bucket = &bucket
	return obs
}

func observeTotal(lines ResolvedLines) EdgeObservation {
	obs := EdgeObservation{EdgeType: OUEdge}
	diff, ok := totalDiff(lines.FairTotal, lines.MarketTotal)
	if !ok {
		return obs
	}
	bucket, _ := OUBucket(lines.FairTotal, lines.MarketTotal)
	obs.Magnitude = floatPtr(diff)
	obs.Bucket = &bucket
	return obs
}

func observeMoneyline(lines ResolvedLines) EdgeObservation {
	obs := EdgeObservation{EdgeType: MoneylineProb}
	bucket, ok := MoneylineBucket(lines.HomeWinProb, lines.AwayWinProb)
	if !ok {
		return obs
	}
	obs.Magnitude = floatPtr(maxProbability(lines.HomeWinProb, lines.AwayWinProb))
	obs.Bucket = &bucket
	return obs
}

// spreadPick favors home when the market asks less of the home side than the model does
func spreadPick(lines ResolvedLines) Side {
	diff, ok := spreadDiff(lines.FairSpread, lines.MarketSpread)
	if !ok {
		return SideNone
	}
	switch diff.Sign() {
	case 1:
		return SideHome
	case -1:
		return SideAway
	default:
		return SideNone
	}
}

func totalPick(lines ResolvedLines) Side {
	diff, ok := totalDiff(lines.FairTotal, lines.MarketTotal)
	if !ok {
		return SideNone
	}
	switch diff.Sign() {
	case 1:
		return SideOver
	case -1:
		return SideUnder
	default:
		return SideNone
	}
}

func moneylinePick(lines ResolvedLines) Side {
	home, homeOK := models.Value(lines.HomeWinProb)
	away, awayOK := models.Value(lines.AwayWinProb)
	if !homeOK || !awayOK {
		return SideNone
	}
	switch {
	case home > away:
		return SideHome
	case away > home:
		return SideAway
	default:
		return SideNone
	}
}
