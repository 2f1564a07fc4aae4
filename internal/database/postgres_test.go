package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/edgeboard/internal/config"
)

func TestConnString(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		Name:     "sports",
		User:     "reader",
		Password: "secret",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=reader password=secret dbname=sports sslmode=require",
		ConnString(cfg),
	)
}

func TestRequiredTables(t *testing.T) {
	cfg := &config.Config{
		Sports: config.SportsConfig{
			Enabled: []string{"nba", "cfb"},
			Tables: map[string]config.SportTables{
				"cfb": {Games: "cfb_weekly_games"},
			},
		},
	}

	assert.Equal(t, []string{
		"nba_games", "nba_latest_predictions", "nba_edge_accuracy_buckets",
		"cfb_weekly_games", "cfb_latest_predictions", "cfb_edge_accuracy_buckets",
	}, RequiredTables(cfg))
}
