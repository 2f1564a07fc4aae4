package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/yourusername/edgeboard/internal/database"
	"github.com/yourusername/edgeboard/internal/edge"
	"github.com/yourusername/edgeboard/internal/models"
)

// PostgresPredictionRepository implements PredictionRepository for PostgreSQL
type PostgresPredictionRepository struct {
	db     *database.DB
	tables TableResolver
}

// NewPostgresPredictionRepository creates a new prediction repository
func NewPostgresPredictionRepository(db *database.DB, tables TableResolver) PredictionRepository {
	return &PostgresPredictionRepository{db: db, tables: tables}
}

// latestRunQuery selects every row of the newest run. Tables without a run column are
// treated as a single run.
func latestRunQuery(table string, adapter edge.SportAdapter) string {
	runID := jsonCoalesce("p", adapter.Fields.RunID)
	createdAt := jsonCoalesce("p", adapter.Fields.CreatedAt)
	latestRunID := jsonCoalesce("l", adapter.Fields.RunID)
	latestCreatedAt := jsonCoalesce("l", adapter.Fields.CreatedAt)

	return fmt.Sprintf(`
		WITH latest AS (
			SELECT %s AS run_id
			FROM %s l
			ORDER BY %s DESC NULLS LAST, %s DESC NULLS LAST
			LIMIT 1
		)
		SELECT to_jsonb(p)
		FROM %s p, latest
		WHERE %s IS NOT DISTINCT FROM latest.run_id
		ORDER BY %s
	`, latestRunID, quoteTable(table), latestCreatedAt, latestRunID,
		quoteTable(table), runID, createdAt)
}

// GetLatestRun retrieves the newest prediction run for a sport
func (r *PostgresPredictionRepository) GetLatestRun(ctx context.Context, sport models.Sport) (*models.PredictionRun, error) {
	adapter, err := edge.AdapterFor(sport)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.GetPool().Query(ctx, latestRunQuery(r.tables(sport).Predictions, adapter))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s predictions: %w", sport, err)
	}

	raw, err := collectJSONRows(rows)
	if err != nil {
		return nil, err
	}
	return DecodeLatestRun(sport, adapter, raw)
}

// DecodeLatestRun maps raw prediction rows to a run. When rows from several runs are
// supplied only the newest run is kept, ordered by created_at then run ID.
func DecodeLatestRun(sport models.Sport, adapter edge.SportAdapter, raw []map[string]any) (*models.PredictionRun, error) {
	preds := make([]*models.LatestPrediction, 0, len(raw))
	for _, row := range raw {
		pred, err := adapter.DecodePrediction(row)
		if err != nil {
			continue
		}
		preds = append(preds, pred)
	}
	if len(preds) == 0 {
		return nil, fmt.Errorf("%s: %w", sport, models.ErrNoPredictions)
	}

	newest := preds[0]
	for _, p := range preds[1:] {
		if p.CreatedAt.After(newest.CreatedAt) ||
			(p.CreatedAt.Equal(newest.CreatedAt) && p.RunID > newest.RunID) {
			newest = p
		}
	}

	run := &models.PredictionRun{
		RunID:     newest.RunID,
		Sport:     sport,
		CreatedAt: newest.CreatedAt,
	}
	for _, p := range preds {
		if p.RunID == newest.RunID {
			run.Predictions = append(run.Predictions, p)
			if p.CreatedAt.After(run.CreatedAt) {
				run.CreatedAt = p.CreatedAt
			}
		}
	}
	sort.SliceStable(run.Predictions, func(i, j int) bool {
		return run.Predictions[i].GameID < run.Predictions[j].GameID
	})
	return run, nil
}
