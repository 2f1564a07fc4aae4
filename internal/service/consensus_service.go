package service

import (
	"errors"

	"github.com/yourusername/edgeboard/internal/consensus"
	"github.com/yourusername/edgeboard/internal/logger"
	"github.com/yourusername/edgeboard/internal/metrics"
	"github.com/yourusername/edgeboard/internal/models"
)

// ConsensusService wraps the aggregator with logging and metrics
type ConsensusService struct {
	aggregator *consensus.Aggregator
	logger     *logger.ConsensusLogger
}

// NewConsensusService creates a new consensus service
func NewConsensusService(weighting consensus.Weighting, log *logger.ConsensusLogger) *ConsensusService {
	if log == nil {
		log = logger.NewConsensusLogger(logger.Discard())
	}
	return &ConsensusService{
		aggregator: consensus.NewAggregator(
			consensus.WithWeighting(weighting),
			consensus.WithLogger(log.Entry),
		),
		logger: log,
	}
}

// Weighting returns the configured weighting scheme
func (s *ConsensusService) Weighting() consensus.Weighting {
	return s.aggregator.Weighting()
}

// Compute combines the predictions for one target
func (s *ConsensusService) Compute(target consensus.Target, preds []models.ModelPrediction) (*models.ConsensusResult, error) {
	result, err := s.aggregator.Aggregate(target, preds)
	if err != nil {
		metrics.RecordConsensusFailure(string(target), len(preds))
		if errors.Is(err, consensus.ErrInsufficientData) {
			s.logger.LogInsufficientData(string(target), len(preds))
		}
		return nil, err
	}

	metrics.RecordConsensus(string(target), result.Confidence, len(preds)-result.Models)
	s.logger.LogConsensus(string(target), string(s.Weighting()), len(preds), result.Models,
		result.PrimaryPercentage, result.Confidence, result.PredictedLabel)
	return result, nil
}
