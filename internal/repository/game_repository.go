package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/yourusername/edgeboard/internal/database"
	"github.com/yourusername/edgeboard/internal/edge"
	"github.com/yourusername/edgeboard/internal/models"
)

// PostgresGameRepository implements GameRepository for PostgreSQL
type PostgresGameRepository struct {
	db     *database.DB
	tables TableResolver
}

// NewPostgresGameRepository creates a new game repository
func NewPostgresGameRepository(db *database.DB, tables TableResolver) GameRepository {
	return &PostgresGameRepository{db: db, tables: tables}
}

// gamesByDateQuery selects the rows whose date column starts with $1 (YYYY-MM-DD)
func gamesByDateQuery(table string, adapter edge.SportAdapter) string {
	return fmt.Sprintf(`
		SELECT to_jsonb(g)
		FROM %s g
		WHERE left(%s, 10) = $1
	`, quoteTable(table), jsonCoalesce("g", adapter.Fields.GameDate))
}

// GetByDate retrieves the games scheduled on a day
func (r *PostgresGameRepository) GetByDate(ctx context.Context, sport models.Sport, date time.Time) ([]*models.Game, error) {
	adapter, err := edge.AdapterFor(sport)
	if err != nil {
		return nil, err
	}

	query := gamesByDateQuery(r.tables(sport).Games, adapter)
	rows, err := r.db.GetPool().Query(ctx, query, date.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s games: %w", sport, err)
	}

	raw, err := collectJSONRows(rows)
	if err != nil {
		return nil, err
	}
	return DecodeGames(adapter, raw, date)
}

// DecodeGames maps raw rows to games on the given day, dropping rows without an ID
func DecodeGames(adapter edge.SportAdapter, raw []map[string]any, date time.Time) ([]*models.Game, error) {
	games := make([]*models.Game, 0, len(raw))
	for _, row := range raw {
		game, err := adapter.DecodeGame(row)
		if err != nil {
			continue
		}
		if !game.ScheduledOn(date) {
			continue
		}
		games = append(games, game)
	}
	return games, nil
}
