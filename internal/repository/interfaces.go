package repository

import (
	"context"
	"time"

	"github.com/yourusername/edgeboard/internal/models"
)

// GameRepository defines the interface for game data access
type GameRepository interface {
	// GetByDate returns the games scheduled on the given calendar day
	GetByDate(ctx context.Context, sport models.Sport, date time.Time) ([]*models.Game, error)
}

// PredictionRepository defines the interface for prediction data access
type PredictionRepository interface {
	// GetLatestRun returns the newest prediction run, or models.ErrNoPredictions
	GetLatestRun(ctx context.Context, sport models.Sport) (*models.PredictionRun, error)
}

// AccuracyRepository defines the interface for edge-bucket accuracy data access
type AccuracyRepository interface {
	GetBucketRows(ctx context.Context, sport models.Sport) ([]models.AccuracyBucketRow, error)
}

// Tables names the relations one sport is read from
type Tables struct {
	Games       string
	Predictions string
	Accuracy    string
}

// TableResolver maps a sport to its relations
type TableResolver func(sport models.Sport) Tables
