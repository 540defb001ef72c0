package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRankerSmallArrayKeepsTopK(t *testing.T) {
	r := NewRanker(3)
	scores := map[DocumentNumber]float64{1: 5, 2: 9, 3: 1, 4: 7, 5: 3}
	for doc, score := range scores {
		r.Insert(doc, score)
	}
	results := r.Results()
	require.Len(t, results, 3)
	require.Equal(t, DocumentNumber(2), results[0].Doc)
	require.Equal(t, DocumentNumber(4), results[1].Doc)
	require.Equal(t, DocumentNumber(1), results[2].Doc)
	require.Equal(t, 5, r.NofVisited())
}

func TestRankerTieBreakBySmallerDocno(t *testing.T) {
	r := NewRanker(2)
	r.Insert(10, 5.0)
	r.Insert(2, 5.0)
	r.Insert(20, 5.0)
	results := r.Results()
	require.Len(t, results, 2)
	require.Equal(t, DocumentNumber(2), results[0].Doc)
}

func TestRankerHeapBackingAboveThreshold(t *testing.T) {
	r := NewRanker(rankerSmallArrayThreshold + 5)
	rng := rand.New(rand.NewSource(42))
	best := make([]float64, 0)
	for i := 0; i < 500; i++ {
		score := rng.Float64() * 1000
		best = append(best, score)
		r.Insert(DocumentNumber(i+1), score)
	}
	results := r.Results()
	require.Len(t, results, rankerSmallArrayThreshold+5)
	for i := 1; i < len(results); i++ {
		require.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestRankerNofVisitedAndNofRanked(t *testing.T) {
	r := NewRanker(2)
	r.Insert(1, 1.0)
	r.Insert(2, 2.0)
	r.Insert(3, 0.5) // rejected, below current top-2
	require.Equal(t, 3, r.NofVisited())
	require.Equal(t, 2, r.NofRanked())
}
