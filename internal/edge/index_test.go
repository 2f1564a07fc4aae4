package edge

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/edgeboard/internal/models"
)

func sampleRows() []models.AccuracyBucketRow {
	return []models.AccuracyBucketRow{
		{EdgeType: "SPREAD_EDGE", Bucket: 1.5, Games: 40, Correct: 25, AccuracyPct: 62.5},
		{EdgeType: "SPREAD_EDGE", Bucket: 3.0, Games: 22, Correct: 13, AccuracyPct: 59.1},
		{EdgeType: "OU_EDGE", Bucket: -2.5, Games: 31, Correct: 18, AccuracyPct: 58.06},
		{EdgeType: "OU_EDGE", Bucket: 2.5, Games: 28, Correct: 14, AccuracyPct: 50.0},
		{EdgeType: "MONEYLINE_PROB", Bucket: 0.6, Games: 120, Correct: 74, AccuracyPct: 61.67},
	}
}

func TestBuildIndexLookup(t *testing.T) {
	idx := BuildIndex(sampleRows())
	require.Equal(t, 5, idx.Len())

	key, ok := SpreadBucket(models.Float(-2.0), models.Float(-3.5))
	require.True(t, ok)

	stat := idx.Lookup(SpreadEdge, &key)
	require.NotNil(t, stat)
	assert.Equal(t, 40, stat.Games)
	assert.Equal(t, 25, stat.Correct)
	assert.Equal(t, 62.5, stat.AccuracyPct)
	assert.Equal(t, 15, stat.Losses())
}

func TestLookupKeepsDirectionsApart(t *testing.T) {
	idx := BuildIndex(sampleRows())

	over := NewBucketKey(2.5)
	under := NewBucketKey(-2.5)

	require.NotNil(t, idx.Lookup(OUEdge, &over))
	require.NotNil(t, idx.Lookup(OUEdge, &under))
	assert.Equal(t, 50.0, idx.Lookup(OUEdge, &over).AccuracyPct)
	assert.Equal(t, 58.06, idx.Lookup(OUEdge, &under).AccuracyPct)

	// Same bucket value under a different edge type is a different key
	assert.Nil(t, idx.Lookup(SpreadEdge, &over))
}

func TestLookupMissReturnsNil(t *testing.T) {
	idx := BuildIndex(sampleRows())

	missing := NewBucketKey(9.5)
	assert.Nil(t, idx.Lookup(SpreadEdge, &missing))
	assert.Nil(t, idx.Lookup(SpreadEdge, nil))
}

func TestLookupOnNilIndex(t *testing.T) {
	var idx *AccuracyIndex
	key := NewBucketKey(1.5)

	assert.NotPanics(t, func() {
		assert.Nil(t, idx.Lookup(SpreadEdge, &key))
	})
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, IndexStats{}, idx.Stats())
}

func TestBuildIndexDuplicatesLastWriteWins(t *testing.T) {
	rows := []models.AccuracyBucketRow{
		{EdgeType: "SPREAD_EDGE", Bucket: 1.5, Games: 10, Correct: 5, AccuracyPct: 50},
		{EdgeType: "spread", Bucket: 1.50, Games: 40, Correct: 25, AccuracyPct: 62.5},
	}
	idx := BuildIndex(rows)

	key := NewBucketKey(1.5)
	stat := idx.Lookup(SpreadEdge, &key)
	require.NotNil(t, stat)
	assert.Equal(t, 40, stat.Games)
	assert.Equal(t, 1, idx.Stats().Duplicates)
	assert.Equal(t, 1, idx.Len())
}

func TestBuildIndexSkipsBadRows(t *testing.T) {
	rows := append(sampleRows(),
		models.AccuracyBucketRow{EdgeType: "PLAYER_PROP", Bucket: 1.0, Games: 3},
		models.AccuracyBucketRow{EdgeType: "SPREAD_EDGE", Bucket: math.NaN(), Games: 3},
	)

	idx := BuildIndex(rows)
	stats := idx.Stats()
	assert.Equal(t, 7, stats.Rows)
	assert.Equal(t, 5, stats.Indexed)
	assert.Equal(t, 1, stats.UnknownEdgeTypes)
	assert.Equal(t, 1, stats.InvalidBuckets)
}

func TestBuildIndexSkipsIncompleteRows(t *testing.T) {
	idx := BuildIndex([]models.AccuracyBucketRow{
		{EdgeType: "SPREAD_EDGE", Bucket: 1.5, Incomplete: true},
		{EdgeType: "OU_EDGE", Bucket: 2.5, Games: 10, Correct: 6, AccuracyPct: math.NaN()},
	})

	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, 2, idx.Stats().InvalidBuckets)

	key := NewBucketKey(1.5)
	assert.Nil(t, idx.Lookup(SpreadEdge, &key))
}

func TestOffGridRowsNeverMatchDerivedKeys(t *testing.T) {
	rows := []models.AccuracyBucketRow{
		{EdgeType: "MONEYLINE_PROB", Bucket: 0.58, Games: 12, Correct: 7, AccuracyPct: 58.3},
	}
	idx := BuildIndex(rows)
	assert.Equal(t, 1, idx.Stats().OffGrid)

	key, ok := MoneylineBucket(models.Float(0.58), models.Float(0.42))
	require.True(t, ok)
	assert.Nil(t, idx.Lookup(MoneylineProb, &key))
}

func TestIndexRowsSorted(t *testing.T) {
	idx := BuildIndex(sampleRows())
	rows := idx.Rows()
	require.Len(t, rows, 5)

	assert.Equal(t, "SPREAD_EDGE", rows[0].EdgeType)
	assert.Equal(t, 1.5, rows[0].Bucket)
	assert.Equal(t, "SPREAD_EDGE", rows[1].EdgeType)
	assert.Equal(t, "OU_EDGE", rows[2].EdgeType)
	assert.Equal(t, -2.5, rows[2].Bucket)
	assert.Equal(t, "MONEYLINE_PROB", rows[4].EdgeType)
}
