package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProximityWeightingContextInitAndTouches(t *testing.T) {
	a := leaf(PostingEntry{Doc: 1, Positions: []Position{10, 50}})
	b := leaf(PostingEntry{Doc: 1, Positions: []Position{11, 90}})
	a.SkipDoc(1)
	b.SkipDoc(1)

	ctx := NewProximityWeightingContext(DefaultProximityConfig())
	err := ctx.Init([]PostingIterator{a, b}, 1, IndexRange{})
	require.NoError(t, err)
	require.Len(t, ctx.nodes, 4)

	fw := ctx.CollectFieldStatistics()
	require.Greater(t, fw.Get(0), 0.0)
	require.Greater(t, fw.Get(1), 0.0)
}

func TestProximityWeightingContextTitleScope(t *testing.T) {
	a := leaf(PostingEntry{Doc: 1, Positions: []Position{2}})
	a.SkipDoc(1)

	ctx := NewProximityWeightingContext(DefaultProximityConfig())
	require.NoError(t, ctx.Init([]PostingIterator{a}, 1, IndexRange{}))
	ctx.MarkTitleScope(IndexRange{Start: 1, End: 5})
	require.True(t, ctx.nodes[0].titleScopeMatch)

	fw := ctx.CollectFieldStatistics()
	require.Greater(t, fw.Get(0), 0.0)
}

func TestProximityWeightingContextRejectsTooManyFeatures(t *testing.T) {
	ops := make([]PostingIterator, MaxNofArguments+1)
	for i := range ops {
		ops[i] = leaf(PostingEntry{Doc: 1, Positions: []Position{1}})
	}
	ctx := NewProximityWeightingContext(DefaultProximityConfig())
	err := ctx.Init(ops, 1, IndexRange{})
	require.Error(t, err)
}

func TestProximityWeightingContextBestPassage(t *testing.T) {
	a := leaf(PostingEntry{Doc: 1, Positions: []Position{10, 11, 12, 500}})
	b := leaf(PostingEntry{Doc: 1, Positions: []Position{10, 11, 12}})
	a.SkipDoc(1)
	b.SkipDoc(1)

	ctx := NewProximityWeightingContext(DefaultProximityConfig())
	require.NoError(t, ctx.Init([]PostingIterator{a, b}, 1, IndexRange{}))
	rng, ok := ctx.BestPassage()
	require.True(t, ok)
	require.LessOrEqual(t, rng.Start, Position(12))
}
