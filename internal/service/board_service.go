package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/edgeboard/internal/edge"
	"github.com/yourusername/edgeboard/internal/logger"
	"github.com/yourusername/edgeboard/internal/metrics"
	"github.com/yourusername/edgeboard/internal/models"
	"github.com/yourusername/edgeboard/internal/repository"
)

// BoardRequest asks for one sport's slate on one day. Date is required; callers
// resolve "today" in their own timezone.
type BoardRequest struct {
	Sport models.Sport
	Date  time.Time
	Sort  edge.SortMode
}

// Board is a ranked, enriched slate
type Board struct {
	Sport      models.Sport        `json:"sport"`
	Date       string              `json:"date"`
	Sort       edge.SortMode       `json:"sort"`
	RunID      string              `json:"prediction_run_id,omitempty"`
	SnapshotID string              `json:"accuracy_snapshot_id,omitempty"`
	Games      []edge.EnrichedGame `json:"games"`
}

// BoardService assembles boards from games, the latest prediction run and the accuracy index
type BoardService struct {
	games       repository.GameRepository
	predictions repository.PredictionRepository
	indexes     *IndexService
	logger      *logger.EdgeLogger
}

// NewBoardService creates a new board service
func NewBoardService(games repository.GameRepository, predictions repository.PredictionRepository, indexes *IndexService, log *logger.EdgeLogger) *BoardService {
	if log == nil {
		log = logger.NewEdgeLogger(logger.Discard())
	}
	return &BoardService{
		games:       games,
		predictions: predictions,
		indexes:     indexes,
		logger:      log,
	}
}

// Board builds the board for a request. A missing prediction run or an unavailable
// accuracy index degrades the board to fewer annotations rather than failing it.
func (s *BoardService) Board(ctx context.Context, req BoardRequest) (board *Board, err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		metrics.RecordBoardRequest(string(req.Sport), string(req.Sort), outcome, time.Since(start).Seconds())
	}()

	if req.Date.IsZero() {
		return nil, models.ErrInvalidDate
	}
	if req.Sort == "" {
		req.Sort = edge.SortTime
	}
	if err := s.indexes.CheckSport(req.Sport); err != nil {
		return nil, err
	}

	games, err := s.games.GetByDate(ctx, req.Sport, req.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to load games: %w", err)
	}

	run, err := s.predictions.GetLatestRun(ctx, req.Sport)
	if err != nil {
		if !errors.Is(err, models.ErrNoPredictions) {
			return nil, fmt.Errorf("failed to load predictions: %w", err)
		}
		run = nil
	}

	board = &Board{
		Sport: req.Sport,
		Date:  req.Date.Format(models.DateLayout),
		Sort:  req.Sort,
	}
	if run != nil {
		board.RunID = run.RunID
	}

	var idx *edge.AccuracyIndex
	snap, err := s.indexes.Index(ctx, req.Sport)
	if err != nil {
		s.logger.LogRefreshFailure(string(req.Sport), err)
	} else {
		idx = snap.Index
		board.SnapshotID = snap.ID
	}

	enriched := edge.EnrichAll(games, run.ByGameID(), idx)
	board.Games = edge.Rank(enriched, req.Sort)

	withPrediction, withAccuracy := s.recordLookups(req.Sport, board.Games)
	s.logger.LogBoard(string(req.Sport), board.Date, string(req.Sort), board.RunID,
		len(board.Games), withPrediction, withAccuracy)

	return board, nil
}

func (s *BoardService) recordLookups(sport models.Sport, games []edge.EnrichedGame) (withPrediction, withAccuracy int) {
	for _, g := range games {
		if g.PredictionRunID != "" {
			withPrediction++
		}
		annotated := false
		for _, edgeType := range edge.EdgeTypes {
			result := "no_edge"
			if g.Edge(edgeType).Known() {
				result = "miss"
				if g.Accuracy(edgeType) != nil {
					result = "hit"
					annotated = true
				}
			}
			metrics.RecordAccuracyLookup(string(sport), string(edgeType), result)
		}
		if annotated {
			withAccuracy++
		}
	}
	return withPrediction, withAccuracy
}
