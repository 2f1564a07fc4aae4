package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/edgeboard/internal/config"
)

// Initialize creates a database connection pool and verifies the configured tables exist
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	missing, err := db.MissingTables(ctx, RequiredTables(cfg))
	if err != nil {
		db.Close()
		return nil, err
	}
	if len(missing) > 0 {
		db.Close()
		return nil, fmt.Errorf("configured tables or views not found: %v", missing)
	}

	return db, nil
}

// RequiredTables lists every table or view the enabled sports read from
func RequiredTables(cfg *config.Config) []string {
	tables := make([]string, 0, len(cfg.Sports.Enabled)*3)
	for _, sport := range cfg.Sports.Enabled {
		t := cfg.TablesFor(sport)
		tables = append(tables, t.Games, t.Predictions, t.Accuracy)
	}
	return tables
}

// MissingTables returns the names that do not resolve to a relation
func (db *DB) MissingTables(ctx context.Context, tables []string) ([]string, error) {
	var missing []string
	for _, table := range tables {
		var exists bool
		query := "SELECT to_regclass($1) IS NOT NULL"
		if err := db.pool.QueryRow(ctx, query, pgx.Identifier{table}.Sanitize()).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to check table %s: %w", table, err)
		}
		if !exists {
			missing = append(missing, table)
		}
	}
	return missing, nil
}
