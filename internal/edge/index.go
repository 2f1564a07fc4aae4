package edge

import (
	"math"
	"sort"

	"github.com/yourusername/edgeboard/internal/models"
)

type indexKey struct {
	edgeType EdgeType
	bucket   string
}

// IndexStats summarizes what happened to the rows an index was built from
type IndexStats struct {
	Rows             int `json:"rows"`
	Indexed          int `json:"indexed"`
	Duplicates       int `json:"duplicates"`
	UnknownEdgeTypes int `json:"unknown_edge_types"`
	InvalidBuckets   int `json:"invalid_buckets"`
	OffGrid          int `json:"off_grid"`
}

// AccuracyIndex maps (edge type, bucket) to historical outcome counts.
// An index is immutable once built; refresh by building a new one.
type AccuracyIndex struct {
	entries map[indexKey]models.AccuracyStat
	keys    map[indexKey]BucketKey
	stats   IndexStats
}

// BuildIndex indexes accuracy rows. Duplicate keys keep the last row. Rows with an
// unknown edge type, a non-finite bucket or missing outcome counts are skipped.
// None of these are errors.
func BuildIndex(rows []models.AccuracyBucketRow) *AccuracyIndex {
	idx := &AccuracyIndex{
		entries: make(map[indexKey]models.AccuracyStat, len(rows)),
		keys:    make(map[indexKey]BucketKey, len(rows)),
		stats:   IndexStats{Rows: len(rows)},
	}

	for _, row := range rows {
		edgeType, ok := ParseEdgeType(row.EdgeType)
		if !ok {
			idx.stats.UnknownEdgeTypes++
			continue
		}
		if row.Incomplete || math.IsNaN(row.Bucket) || math.IsInf(row.Bucket, 0) ||
			math.IsNaN(row.AccuracyPct) || math.IsInf(row.AccuracyPct, 0) {
			idx.stats.InvalidBuckets++
			continue
		}

		bucket := NewBucketKey(row.Bucket)
		// Off-grid rows are kept but can never be hit by a derived key
		if !bucket.onGrid(edgeType) {
			idx.stats.OffGrid++
		}

		key := indexKey{edgeType: edgeType, bucket: bucket.String()}
		if _, exists := idx.entries[key]; exists {
			idx.stats.Duplicates++
		}
		idx.entries[key] = models.AccuracyStat{
			Games:       row.Games,
			Correct:     row.Correct,
			AccuracyPct: row.AccuracyPct,
		}
		idx.keys[key] = bucket
	}

	idx.stats.Indexed = len(idx.entries)
	return idx
}

// Lookup returns the stat for the bucket, or nil when the bucket is nil or has no row.
// A nil index behaves as an empty one.
func (idx *AccuracyIndex) Lookup(edgeType EdgeType, bucket *BucketKey) *models.AccuracyStat {
	if idx == nil || bucket == nil {
		return nil
	}
	stat, ok := idx.entries[indexKey{edgeType: edgeType, bucket: bucket.String()}]
	if !ok {
		return nil
	}
	return &stat
}

// Len returns the number of distinct buckets
func (idx *AccuracyIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Stats returns build statistics
func (idx *AccuracyIndex) Stats() IndexStats {
	if idx == nil {
		return IndexStats{}
	}
	return idx.stats
}

// Rows returns the indexed buckets ordered by edge type then bucket value
func (idx *AccuracyIndex) Rows() []models.AccuracyBucketRow {
	if idx == nil {
		return nil
	}

	order := make(map[EdgeType]int, len(EdgeTypes))
	for i, t := range EdgeTypes {
		order[t] = i
	}

	rows := make([]models.AccuracyBucketRow, 0, len(idx.entries))
	for key, stat := range idx.entries {
		rows = append(rows, models.AccuracyBucketRow{
			EdgeType:    string(key.edgeType),
			Bucket:      idx.keys[key].Float64(),
			Games:       stat.Games,
			Correct:     stat.Correct,
			AccuracyPct: stat.AccuracyPct,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		oi, oj := order[EdgeType(rows[i].EdgeType)], order[EdgeType(rows[j].EdgeType)]
		if oi != oj {
			return oi < oj
		}
		return rows[i].Bucket < rows[j].Bucket
	})
	return rows
}
