package repository

import (
	"context"
	"fmt"

	"github.com/yourusername/edgeboard/internal/database"
	"github.com/yourusername/edgeboard/internal/models"
)

// PostgresAccuracyRepository implements AccuracyRepository for PostgreSQL
type PostgresAccuracyRepository struct {
	db     *database.DB
	tables TableResolver
}

// NewPostgresAccuracyRepository creates a new accuracy repository
func NewPostgresAccuracyRepository(db *database.DB, tables TableResolver) AccuracyRepository {
	return &PostgresAccuracyRepository{db: db, tables: tables}
}

func bucketRowsQuery(table string) string {
	return fmt.Sprintf(`
		SELECT edge_type, bucket::float8, games::float8, correct::float8, accuracy_pct::float8
		FROM %s
		WHERE edge_type IS NOT NULL AND bucket IS NOT NULL
		ORDER BY edge_type, bucket
	`, quoteTable(table))
}

// GetBucketRows retrieves every accuracy bucket row for a sport
func (r *PostgresAccuracyRepository) GetBucketRows(ctx context.Context, sport models.Sport) ([]models.AccuracyBucketRow, error) {
	rows, err := r.db.GetPool().Query(ctx, bucketRowsQuery(r.tables(sport).Accuracy))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s accuracy buckets: %w", sport, err)
	}
	defer rows.Close()

	var out []models.AccuracyBucketRow
	for rows.Next() {
		var (
			edgeType                    string
			bucket                      float64
			games, correct, accuracyPct *float64
		)
		if err := rows.Scan(&edgeType, &bucket, &games, &correct, &accuracyPct); err != nil {
			return nil, fmt.Errorf("failed to scan accuracy bucket: %w", err)
		}
		out = append(out, models.NewAccuracyBucketRow(edgeType, bucket, games, correct, accuracyPct))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accuracy buckets: %w", err)
	}

	return out, nil
}
