package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yourusername/edgeboard/internal/metrics"
	"github.com/yourusername/edgeboard/internal/models"
)

const rowStoreName = "redis_rows"

// DefaultKeyPrefix namespaces the Redis keys
const DefaultKeyPrefix = "edgeboard"

// RowStore shares raw accuracy bucket rows between instances
type RowStore interface {
	// ReadRows returns the stored rows; found is false when no snapshot exists
	ReadRows(ctx context.Context, sport models.Sport) (rows []models.AccuracyBucketRow, found bool, err error)
	WriteRows(ctx context.Context, sport models.Sport, rows []models.AccuracyBucketRow) error
}

// RedisRowStore stores bucket rows as one JSON document per sport
type RedisRowStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisRowStore creates a new Redis row store
func NewRedisRowStore(client *redis.Client, prefix string, ttl time.Duration) *RedisRowStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisRowStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisRowStore) key(sport models.Sport) string {
	return fmt.Sprintf("%s:accuracy:%s:rows", s.prefix, sport)
}

type rowDocument struct {
	Sport    models.Sport               `json:"sport"`
	StoredAt time.Time                  `json:"stored_at"`
	Rows     []models.AccuracyBucketRow `json:"rows"`
}

// WriteRows stores the rows for a sport, replacing any previous snapshot
func (s *RedisRowStore) WriteRows(ctx context.Context, sport models.Sport, rows []models.AccuracyBucketRow) error {
	data, err := json.Marshal(rowDocument{Sport: sport, StoredAt: time.Now().UTC(), Rows: rows})
	if err != nil {
		return fmt.Errorf("marshaling rows: %w", err)
	}

	if err := s.client.Set(ctx, s.key(sport), data, s.ttl).Err(); err != nil {
		metrics.RecordCacheOperation(rowStoreName, "set", "error")
		return fmt.Errorf("writing %s rows: %w", sport, err)
	}
	metrics.RecordCacheOperation(rowStoreName, "set", "ok")
	return nil
}

// ReadRows retrieves the rows for a sport
func (s *RedisRowStore) ReadRows(ctx context.Context, sport models.Sport) ([]models.AccuracyBucketRow, bool, error) {
	data, err := s.client.Get(ctx, s.key(sport)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheOperation(rowStoreName, "get", "miss")
		return nil, false, nil
	}
	if err != nil {
		metrics.RecordCacheOperation(rowStoreName, "get", "error")
		return nil, false, fmt.Errorf("reading %s rows: %w", sport, err)
	}

	var doc rowDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		metrics.RecordCacheOperation(rowStoreName, "get", "error")
		return nil, false, fmt.Errorf("unmarshaling %s rows: %w", sport, err)
	}
	metrics.RecordCacheOperation(rowStoreName, "get", "hit")
	return doc.Rows, true, nil
}

// Ping checks the Redis connection
func (s *RedisRowStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (s *RedisRowStore) Close() error {
	return s.client.Close()
}
