package edge

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// SortMode selects how a board of enriched games is ordered
type SortMode string

// Sort modes
const (
	SortTime              SortMode = "time"
	SortSpreadAccuracy    SortMode = "spread_accuracy"
	SortMoneylineAccuracy SortMode = "moneyline_accuracy"
	SortOUAccuracy        SortMode = "ou_accuracy"
)

// noData ranks games without an accuracy row below any real percentage
const noData = -1.0

// ParseSortMode resolves a sort mode name; an empty string means time order
func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "time", "kickoff":
		return SortTime, nil
	case "spread", "spread_accuracy":
		return SortSpreadAccuracy, nil
	case "moneyline", "ml", "moneyline_accuracy":
		return SortMoneylineAccuracy, nil
	case "ou", "total", "ou_accuracy":
		return SortOUAccuracy, nil
	default:
		return "", fmt.Errorf("unknown sort mode %q", s)
	}
}

// EdgeType returns the edge type an accuracy mode sorts by
func (m SortMode) EdgeType() (EdgeType, bool) {
	switch m {
	case SortSpreadAccuracy:
		return SpreadEdge, true
	case SortMoneylineAccuracy:
		return MoneylineProb, true
	case SortOUAccuracy:
		return OUEdge, true
	default:
		return "", false
	}
}

// Rank returns a new slice ordered by the mode. Accuracy modes sort descending with
// missing accuracy last and fall back to kickoff order, so equal inputs always produce
// the same ordering. The input slice is not modified.
func Rank(games []EnrichedGame, mode SortMode) []EnrichedGame {
	ranked := make([]EnrichedGame, len(games))
	copy(ranked, games)

	edgeType, byAccuracy := mode.EdgeType()
	sort.SliceStable(ranked, func(i, j int) bool {
		if byAccuracy {
			ai, aj := accuracyRank(ranked[i], edgeType), accuracyRank(ranked[j], edgeType)
			if ai != aj {
				return ai > aj
			}
		}
		return kickoffLess(ranked[i], ranked[j])
	})
	return ranked
}

func accuracyRank(g EnrichedGame, edgeType EdgeType) float64 {
	stat := g.Accuracy(edgeType)
	if stat == nil || math.IsNaN(stat.AccuracyPct) {
		return noData
	}
	return stat.AccuracyPct
}

func kickoffLess(a, b EnrichedGame) bool {
	ka, kb := kickoff(a), kickoff(b)
	if ka != kb {
		return ka < kb
	}
	return gameID(a) < gameID(b)
}

func kickoff(g EnrichedGame) string {
	if g.Game == nil {
		return ""
	}
	return g.Game.Kickoff()
}

func gameID(g EnrichedGame) string {
	if g.Game == nil {
		return ""
	}
	return g.Game.ID
}
