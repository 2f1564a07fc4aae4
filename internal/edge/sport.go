package edge

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/edgeboard/internal/models"
)

// FieldMap lists, per canonical field, the source column names to try in order
type FieldMap struct {
	ID       []string
	AwayTeam []string
	HomeTeam []string
	GameDate []string
	GameTime []string

	VegasHomeSpread    []string
	VegasTotal         []string
	VegasHomeMoneyline []string
	VegasAwayMoneyline []string

	FairHomeSpread []string
	FairTotal      []string

	HomeWinProb   []string
	AwayWinProb   []string
	HomeCoverProb []string
	OverProb      []string

	RunID     []string
	CreatedAt []string
}

// SportAdapter decodes one sport's backend rows into the canonical models
type SportAdapter struct {
	Sport  models.Sport
	Fields FieldMap
	// ProbabilityScale divides probability columns; 100 for sources reporting percentages
	ProbabilityScale float64
	// ComplementAwayProb derives the away win probability from the home one when the
	// source only publishes the home side
	ComplementAwayProb bool
}

var commonFields = FieldMap{
	ID:       []string{"game_id", "id", "unique_id"},
	AwayTeam: []string{"away_team"},
	HomeTeam: []string{"home_team"},
	GameDate: []string{"game_date", "date"},
	GameTime: []string{"game_time", "start_time"},

	VegasHomeSpread:    []string{"vegas_home_spread", "home_spread"},
	VegasTotal:         []string{"vegas_total", "vegas_over_under", "over_under", "total"},
	VegasHomeMoneyline: []string{"vegas_home_moneyline", "home_moneyline", "home_ml"},
	VegasAwayMoneyline: []string{"vegas_away_moneyline", "away_moneyline", "away_ml"},

	FairHomeSpread: []string{"model_fair_home_spread", "fair_home_spread"},
	FairTotal:      []string{"model_fair_total", "fair_total"},

	HomeWinProb:   []string{"home_win_prob", "home_win_probability"},
	AwayWinProb:   []string{"away_win_prob", "away_win_probability"},
	HomeCoverProb: []string{"home_cover_prob", "home_away_spread_cover_prob"},
	OverProb:      []string{"over_prob", "ou_result_prob"},

	RunID:     []string{"run_id"},
	CreatedAt: []string{"created_at", "as_of_ts"},
}

// extend returns a copy of the common map with sport-specific names tried first
func extend(overrides FieldMap) FieldMap {
	merge := func(first, rest []string) []string {
		out := make([]string, 0, len(first)+len(rest))
		out = append(out, first...)
		return append(out, rest...)
	}
	return FieldMap{
		ID:                 merge(overrides.ID, commonFields.ID),
		AwayTeam:           merge(overrides.AwayTeam, commonFields.AwayTeam),
		HomeTeam:           merge(overrides.HomeTeam, commonFields.HomeTeam),
		GameDate:           merge(overrides.GameDate, commonFields.GameDate),
		GameTime:           merge(overrides.GameTime, commonFields.GameTime),
		VegasHomeSpread:    merge(overrides.VegasHomeSpread, commonFields.VegasHomeSpread),
		VegasTotal:         merge(overrides.VegasTotal, commonFields.VegasTotal),
		VegasHomeMoneyline: merge(overrides.VegasHomeMoneyline, commonFields.VegasHomeMoneyline),
		VegasAwayMoneyline: merge(overrides.VegasAwayMoneyline, commonFields.VegasAwayMoneyline),
		FairHomeSpread:     merge(overrides.FairHomeSpread, commonFields.FairHomeSpread),
		FairTotal:          merge(overrides.FairTotal, commonFields.FairTotal),
		HomeWinProb:        merge(overrides.HomeWinProb, commonFields.HomeWinProb),
		AwayWinProb:        merge(overrides.AwayWinProb, commonFields.AwayWinProb),
		HomeCoverProb:      merge(overrides.HomeCoverProb, commonFields.HomeCoverProb),
		OverProb:           merge(overrides.OverProb, commonFields.OverProb),
		RunID:              merge(overrides.RunID, commonFields.RunID),
		CreatedAt:          merge(overrides.CreatedAt, commonFields.CreatedAt),
	}
}

var adapters = map[models.Sport]SportAdapter{
	models.SportNBA: {
		Sport: models.SportNBA,
		Fields: extend(FieldMap{
			GameTime: []string{"tipoff_time_et"},
		}),
	},
	models.SportNCAAB: {
		Sport: models.SportNCAAB,
		Fields: extend(FieldMap{
			GameTime:       []string{"tipoff_time_et"},
			FairHomeSpread: []string{"pred_home_margin_spread"},
			FairTotal:      []string{"pred_total_points"},
		}),
	},
	models.SportNFL: {
		Sport: models.SportNFL,
		Fields: extend(FieldMap{
			ID:         []string{"training_key"},
			VegasTotal: []string{"over_line"},
		}),
	},
	models.SportCFB: {
		Sport: models.SportCFB,
		Fields: extend(FieldMap{
			GameDate:           []string{"start_date"},
			VegasHomeSpread:    []string{"api_spread"},
			VegasTotal:         []string{"api_over_line"},
			VegasHomeMoneyline: []string{"home_moneyline"},
			VegasAwayMoneyline: []string{"away_moneyline"},
			FairHomeSpread:     []string{"pred_spread"},
			FairTotal:          []string{"pred_total", "pred_over_line"},
			HomeWinProb:        []string{"pred_ml_proba"},
			HomeCoverProb:      []string{"home_spread_prob"},
			OverProb:           []string{"ou_prob"},
		}),
		ComplementAwayProb: true,
	},
}

// ParseSport resolves a sport name
func ParseSport(s string) (models.Sport, error) {
	sport := models.Sport(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := adapters[sport]; !ok {
		return "", fmt.Errorf("%w: %q", models.ErrUnknownSport, s)
	}
	return sport, nil
}

// AdapterFor returns the field adapter registered for a sport
func AdapterFor(sport models.Sport) (SportAdapter, error) {
	adapter, ok := adapters[sport]
	if !ok {
		return SportAdapter{}, fmt.Errorf("%w: %q", models.ErrUnknownSport, sport)
	}
	return adapter, nil
}

// DecodeGame maps a raw backend row onto a Game. Only the game ID is required.
func (a SportAdapter) DecodeGame(row map[string]any) (*models.Game, error) {
	id, ok := stringField(row, a.Fields.ID)
	if !ok {
		return nil, fmt.Errorf("%s game row has no id field (tried %v)", a.Sport, a.Fields.ID)
	}

	date, clock := a.schedule(row)
	return &models.Game{
		ID:                 id,
		Sport:              a.Sport,
		AwayTeam:           stringOrEmpty(row, a.Fields.AwayTeam),
		HomeTeam:           stringOrEmpty(row, a.Fields.HomeTeam),
		GameDate:           date,
		GameTime:           clock,
		VegasHomeSpread:    floatField(row, a.Fields.VegasHomeSpread),
		VegasTotal:         floatField(row, a.Fields.VegasTotal),
		VegasHomeMoneyline: floatField(row, a.Fields.VegasHomeMoneyline),
		VegasAwayMoneyline: floatField(row, a.Fields.VegasAwayMoneyline),
		FairHomeSpread:     floatField(row, a.Fields.FairHomeSpread),
		FairTotal:          floatField(row, a.Fields.FairTotal),
		HomeWinProb:        a.probability(row, a.Fields.HomeWinProb),
		AwayWinProb:        a.awayProbability(row),
		HomeCoverProb:      a.probability(row, a.Fields.HomeCoverProb),
		OverProb:           a.probability(row, a.Fields.OverProb),
	}, nil
}

// DecodePrediction maps a raw prediction row onto a LatestPrediction
func (a SportAdapter) DecodePrediction(row map[string]any) (*models.LatestPrediction, error) {
	id, ok := stringField(row, a.Fields.ID)
	if !ok {
		return nil, fmt.Errorf("%s prediction row has no game id field (tried %v)", a.Sport, a.Fields.ID)
	}

	pred := &models.LatestPrediction{
		RunID:           stringOrEmpty(row, a.Fields.RunID),
		GameID:          id,
		VegasHomeSpread: floatField(row, a.Fields.VegasHomeSpread),
		VegasTotal:      floatField(row, a.Fields.VegasTotal),
		FairHomeSpread:  floatField(row, a.Fields.FairHomeSpread),
		FairTotal:       floatField(row, a.Fields.FairTotal),
		HomeWinProb:     a.probability(row, a.Fields.HomeWinProb),
		AwayWinProb:     a.awayProbability(row),
		HomeCoverProb:   a.probability(row, a.Fields.HomeCoverProb),
		OverProb:        a.probability(row, a.Fields.OverProb),
	}
	if raw, ok := stringField(row, a.Fields.CreatedAt); ok {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			pred.CreatedAt = ts
		}
	}
	return pred, nil
}

// RunIDOf returns the run ID a raw row carries, or "" when it has none
func (a SportAdapter) RunIDOf(row map[string]any) string {
	return stringOrEmpty(row, a.Fields.RunID)
}

// schedule splits date and kickoff time, accepting a full timestamp in the date column
func (a SportAdapter) schedule(row map[string]any) (string, string) {
	date := stringOrEmpty(row, a.Fields.GameDate)
	clock := stringOrEmpty(row, a.Fields.GameTime)

	if len(date) > len(models.DateLayout) {
		rest := date[len(models.DateLayout):]
		date = date[:len(models.DateLayout)]
		if clock == "" && len(rest) >= 6 && (rest[0] == 'T' || rest[0] == ' ') {
			clock = rest[1:6]
		}
	}
	return date, clock
}

func (a SportAdapter) probability(row map[string]any, names []string) *float64 {
	v := floatField(row, names)
	if v == nil || a.ProbabilityScale == 0 || a.ProbabilityScale == 1 {
		return v
	}
	scaled := *v / a.ProbabilityScale
	return &scaled
}

func (a SportAdapter) awayProbability(row map[string]any) *float64 {
	if v := a.probability(row, a.Fields.AwayWinProb); v != nil {
		return v
	}
	home, ok := models.Value(a.probability(row, a.Fields.HomeWinProb))
	if !ok || !a.ComplementAwayProb {
		return nil
	}
	away := 1 - home
	return &away
}

func stringField(row map[string]any, names []string) (string, bool) {
	for _, name := range names {
		raw, ok := row[name]
		if !ok || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case string:
			if v != "" {
				return v, true
			}
		case json.Number:
			return v.String(), true
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		case int:
			return strconv.Itoa(v), true
		case int64:
			return strconv.FormatInt(v, 10), true
		case fmt.Stringer:
			return v.String(), true
		}
	}
	return "", false
}

func stringOrEmpty(row map[string]any, names []string) string {
	s, _ := stringField(row, names)
	return s
}

// floatField returns the first parsable numeric column; unparsable values are treated as missing
func floatField(row map[string]any, names []string) *float64 {
	for _, name := range names {
		raw, ok := row[name]
		if !ok || raw == nil {
			continue
		}
		var f float64
		switch v := raw.(type) {
		case float64:
			f = v
		case float32:
			f = float64(v)
		case int:
			f = float64(v)
		case int32:
			f = float64(v)
		case int64:
			f = float64(v)
		case json.Number:
			parsed, err := v.Float64()
			if err != nil {
				continue
			}
			f = parsed
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				continue
			}
			f = parsed
		default:
			continue
		}
		if _, ok := models.Value(&f); !ok {
			continue
		}
		return &f
	}
	return nil
}
