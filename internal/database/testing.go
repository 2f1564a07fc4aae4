package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/yourusername/edgeboard/internal/config"
)

// SetupTestDB connects to the database named by EDGEBOARD_TEST_CONFIG, skipping the test when unset
func SetupTestDB(t *testing.T) *DB {
	t.Helper()

	path := os.Getenv("EDGEBOARD_TEST_CONFIG")
	if path == "" {
		t.Skip("Integration test - set EDGEBOARD_TEST_CONFIG to a config with a reachable database")
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("failed to load test config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		t.Fatalf("failed to create test database connection: %v", err)
	}

	t.Cleanup(db.Close)
	return db
}
