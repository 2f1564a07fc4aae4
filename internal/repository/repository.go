package repository

import (
	"fmt"

	"github.com/yourusername/edgeboard/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Games       GameRepository
	Predictions PredictionRepository
	Accuracy    AccuracyRepository
}

// NewRepositories creates and returns all Postgres repository implementations
func NewRepositories(db *database.DB, tables TableResolver) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if tables == nil {
		return nil, fmt.Errorf("table resolver is required")
	}

	return &Repositories{
		Games:       NewPostgresGameRepository(db, tables),
		Predictions: NewPostgresPredictionRepository(db, tables),
		Accuracy:    NewPostgresAccuracyRepository(db, tables),
	}, nil
}
