package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yourusername/edgeboard/internal/cache"
	"github.com/yourusername/edgeboard/internal/edge"
	"github.com/yourusername/edgeboard/internal/logger"
	"github.com/yourusername/edgeboard/internal/metrics"
	"github.com/yourusername/edgeboard/internal/models"
	"github.com/yourusername/edgeboard/internal/repository"
	"github.com/yourusername/edgeboard/internal/stream"
)

// OriginRedis marks an index built from the shared Redis snapshot
const OriginRedis = "redis"

// RefreshPublisher receives an event after every successful refresh
type RefreshPublisher interface {
	Publish(event stream.RefreshEvent)
}

// IndexService builds accuracy indexes and keeps the latest one per sport in the cache
type IndexService struct {
	accuracy  repository.AccuracyRepository
	rows      cache.RowStore
	cache     *cache.IndexCache
	publisher RefreshPublisher
	logger    *logger.EdgeLogger
	origin    string
	enabled   map[models.Sport]bool

	locksMu sync.Mutex
	locks   map[models.Sport]*sync.Mutex
}

// IndexServiceConfig holds the collaborators of an IndexService. Rows, Publisher and
// Logger are optional.
type IndexServiceConfig struct {
	Accuracy  repository.AccuracyRepository
	Rows      cache.RowStore
	Cache     *cache.IndexCache
	Publisher RefreshPublisher
	Logger    *logger.EdgeLogger
	// Origin names the backend the rows come from, e.g. "postgres" or "rest"
	Origin string
	// Sports restricts the service to these sports; empty allows every known sport
	Sports []models.Sport
}

// NewIndexService creates a new index service
func NewIndexService(cfg IndexServiceConfig) (*IndexService, error) {
	if cfg.Accuracy == nil {
		return nil, fmt.Errorf("accuracy repository is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("index cache is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewEdgeLogger(logger.Discard())
	}

	enabled := make(map[models.Sport]bool, len(cfg.Sports))
	for _, s := range cfg.Sports {
		enabled[s] = true
	}

	return &IndexService{
		accuracy:  cfg.Accuracy,
		rows:      cfg.Rows,
		cache:     cfg.Cache,
		publisher: cfg.Publisher,
		logger:    cfg.Logger,
		origin:    cfg.Origin,
		enabled:   enabled,
		locks:     make(map[models.Sport]*sync.Mutex),
	}, nil
}

// Sports returns the enabled sports, or nil when every sport is allowed
func (s *IndexService) Sports() []models.Sport {
	if len(s.enabled) == 0 {
		return nil
	}
	out := make([]models.Sport, 0, len(s.enabled))
	for sport := range s.enabled {
		out = append(out, sport)
	}
	return out
}

// CheckSport reports whether the sport is known and enabled
func (s *IndexService) CheckSport(sport models.Sport) error {
	if _, err := edge.AdapterFor(sport); err != nil {
		return err
	}
	if len(s.enabled) > 0 && !s.enabled[sport] {
		return fmt.Errorf("%w: %q is not enabled", models.ErrUnknownSport, sport)
	}
	return nil
}

// Refresh reads the bucket rows from the backend, publishes them to the shared row
// store, and swaps a freshly built index into the cache.
func (s *IndexService) Refresh(ctx context.Context, sport models.Sport) (*cache.Snapshot, error) {
	if err := s.CheckSport(sport); err != nil {
		return nil, err
	}

	lock := s.lockFor(sport)
	lock.Lock()
	defer lock.Unlock()

	return s.refreshFromSource(ctx, sport)
}

// Index returns the cached index for a sport. On a miss it is loaded from the shared
// row store when one is configured, otherwise from the backend.
func (s *IndexService) Index(ctx context.Context, sport models.Sport) (*cache.Snapshot, error) {
	if err := s.CheckSport(sport); err != nil {
		return nil, err
	}
	if snap, ok := s.cache.Get(sport); ok {
		return snap, nil
	}

	lock := s.lockFor(sport)
	lock.Lock()
	defer lock.Unlock()

	// Another caller may have filled the cache while we waited
	if snap, ok := s.cache.Get(sport); ok {
		return snap, nil
	}

	if s.rows != nil {
		start := time.Now()
		rows, found, err := s.rows.ReadRows(ctx, sport)
		if err != nil {
			s.logger.WithError(err).WithField("sport", sport).Warn("Shared row snapshot unavailable, reading backend")
		} else if found {
			return s.install(sport, rows, OriginRedis, start), nil
		}
	}

	return s.refreshFromSource(ctx, sport)
}

func (s *IndexService) refreshFromSource(ctx context.Context, sport models.Sport) (*cache.Snapshot, error) {
	start := time.Now()

	rows, err := s.accuracy.GetBucketRows(ctx, sport)
	if err != nil {
		metrics.RecordIndexRefreshFailure(string(sport), s.origin)
		s.logger.LogRefreshFailure(string(sport), err)
		return nil, fmt.Errorf("failed to load %s accuracy rows: %w", sport, err)
	}

	if s.rows != nil {
		if err := s.rows.WriteRows(ctx, sport, rows); err != nil {
			s.logger.WithError(err).WithField("sport", sport).Warn("Failed to store shared row snapshot")
		}
	}

	return s.install(sport, rows, s.origin, start), nil
}

func (s *IndexService) install(sport models.Sport, rows []models.AccuracyBucketRow, origin string, start time.Time) *cache.Snapshot {
	idx := edge.BuildIndex(rows)
	snap := s.cache.Replace(sport, idx, origin)
	elapsed := time.Since(start)

	stats := idx.Stats()
	metrics.RecordIndexRefresh(string(sport), origin, idx.Len(), elapsed.Seconds())
	metrics.RecordSkippedRows(string(sport), "unknown_edge_type", stats.UnknownEdgeTypes)
	metrics.RecordSkippedRows(string(sport), "invalid_bucket", stats.InvalidBuckets)
	metrics.RecordSkippedRows(string(sport), "duplicate", stats.Duplicates)
	metrics.RecordSkippedRows(string(sport), "off_grid", stats.OffGrid)

	s.logger.LogIndexBuild(string(sport), snap.ID, origin, stats.Rows, stats.Indexed, stats.Duplicates,
		stats.UnknownEdgeTypes+stats.InvalidBuckets, stats.OffGrid, float64(elapsed.Milliseconds()))

	if s.publisher != nil {
		s.publisher.Publish(stream.RefreshEvent{
			Sport:      sport,
			SnapshotID: snap.ID,
			Origin:     origin,
			Buckets:    idx.Len(),
			BuiltAt:    snap.BuiltAt,
		})
	}
	return snap
}

func (s *IndexService) lockFor(sport models.Sport) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[sport]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[sport] = lock
	}
	return lock
}
