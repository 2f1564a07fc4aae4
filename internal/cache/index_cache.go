// Package cache holds built accuracy indexes in memory and bucket-row snapshots in Redis.
package cache

import (
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/yourusername/edgeboard/internal/edge"
	"github.com/yourusername/edgeboard/internal/metrics"
	"github.com/yourusername/edgeboard/internal/models"
)

const indexCacheName = "index"

// Snapshot is one built accuracy index together with its provenance.
// A snapshot is never modified after it is stored.
type Snapshot struct {
	ID      string              `json:"snapshot_id"`
	Sport   models.Sport        `json:"sport"`
	Origin  string              `json:"origin"`
	BuiltAt time.Time           `json:"built_at"`
	Index   *edge.AccuracyIndex `json:"-"`
}

// IndexCache provides per-sport in-memory caching for accuracy indexes
type IndexCache struct {
	cache *gocache.Cache
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	hitCount  uint64
	missCount uint64
}

// NewIndexCache creates a new index cache. A zero ttl keeps entries until replaced.
func NewIndexCache(ttl time.Duration) *IndexCache {
	cleanup := ttl * 2
	if ttl <= 0 {
		ttl = gocache.NoExpiration
		cleanup = 0
	}
	return &IndexCache{
		cache: gocache.New(ttl, cleanup),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the current snapshot for a sport
func (c *IndexCache) Get(sport models.Sport) (*Snapshot, bool) {
	if item, found := c.cache.Get(string(sport)); found {
		if snap, ok := item.(*Snapshot); ok {
			c.record(true)
			return snap, true
		}
	}
	c.record(false)
	return nil, false
}

// Replace stores a freshly built index for a sport, swapping out the previous one whole
func (c *IndexCache) Replace(sport models.Sport, idx *edge.AccuracyIndex, origin string) *Snapshot {
	snap := &Snapshot{
		ID:      uuid.NewString(),
		Sport:   sport,
		Origin:  origin,
		BuiltAt: c.now().UTC(),
		Index:   idx,
	}
	c.cache.Set(string(sport), snap, c.ttl)
	metrics.RecordCacheOperation(indexCacheName, "set", "ok")
	return snap
}

// Snapshots returns every live snapshot keyed by sport
func (c *IndexCache) Snapshots() map[models.Sport]*Snapshot {
	out := make(map[models.Sport]*Snapshot)
	for key, item := range c.cache.Items() {
		if snap, ok := item.Object.(*Snapshot); ok {
			out[models.Sport(key)] = snap
		}
	}
	return out
}

// Stats returns cache statistics
func (c *IndexCache) Stats() (hits, misses uint64, ratio float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hits = c.hitCount
	misses = c.missCount
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of items in cache
func (c *IndexCache) ItemCount() int {
	return c.cache.ItemCount()
}

// Metrics returns cache counters for the readiness report
func (c *IndexCache) Metrics() map[string]interface{} {
	hits, misses, ratio := c.Stats()
	return map[string]interface{}{
		"items":     c.ItemCount(),
		"hits":      hits,
		"misses":    misses,
		"hit_ratio": ratio,
	}
}

func (c *IndexCache) record(hit bool) {
	c.mu.Lock()
	if hit {
		c.hitCount++
	} else {
		c.missCount++
	}
	c.mu.Unlock()

	result := "miss"
	if hit {
		result = "hit"
	}
	metrics.RecordCacheOperation(indexCacheName, "get", result)
}
