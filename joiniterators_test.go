package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func leaf(entries ...PostingEntry) *PostingLeafIterator {
	return newPostingLeafIteratorFromEntries(0, entries)
}

func TestUnionIteratorMatchesAny(t *testing.T) {
	a := leaf(PostingEntry{Doc: 1, Positions: []Position{1}}, PostingEntry{Doc: 5, Positions: []Position{2}})
	b := leaf(PostingEntry{Doc: 3, Positions: []Position{1}})
	u := NewUnionIterator(a, b)

	require.Equal(t, DocumentNumber(1), u.SkipDoc(1))
	require.Equal(t, DocumentNumber(3), u.SkipDoc(2))
	require.Equal(t, DocumentNumber(5), u.SkipDoc(4))
	require.Equal(t, DocumentNumber(0), u.SkipDoc(6))
}

func TestDifferenceIteratorExcludesNegative(t *testing.T) {
	pos := leaf(
		PostingEntry{Doc: 1, Positions: []Position{1}},
		PostingEntry{Doc: 2, Positions: []Position{1}},
		PostingEntry{Doc: 3, Positions: []Position{1}},
	)
	neg := leaf(PostingEntry{Doc: 2, Positions: []Position{1}})
	d := NewDifferenceIterator(pos, neg)

	require.Equal(t, DocumentNumber(1), d.SkipDoc(1))
	require.Equal(t, DocumentNumber(3), d.SkipDoc(2))
	require.Equal(t, DocumentNumber(0), d.SkipDoc(4))
}

func TestSequenceIteratorFindsAdjacentPhrase(t *testing.T) {
	quick := leaf(PostingEntry{Doc: 1, Positions: []Position{1, 10}})
	brown := leaf(PostingEntry{Doc: 1, Positions: []Position{2, 20}})
	fox := leaf(PostingEntry{Doc: 1, Positions: []Position{3}})
	seq := NewSequenceIterator(1, quick, brown, fox)

	require.Equal(t, DocumentNumber(1), seq.SkipDoc(1))
}

func TestSequenceIteratorRejectsOutOfOrder(t *testing.T) {
	// "fox brown quick" never appears adjacent in order in this document.
	fox := leaf(PostingEntry{Doc: 1, Positions: []Position{5}})
	brown := leaf(PostingEntry{Doc: 1, Positions: []Position{2}})
	quick := leaf(PostingEntry{Doc: 1, Positions: []Position{1}})
	seq := NewSequenceIterator(1, fox, brown, quick)

	require.Equal(t, DocumentNumber(0), seq.SkipDoc(1))
}

func TestIntersectWithinRangeIteratorFindsNearbyCluster(t *testing.T) {
	a := leaf(PostingEntry{Doc: 1, Positions: []Position{1, 100}})
	b := leaf(PostingEntry{Doc: 1, Positions: []Position{4, 101}})
	r, err := NewIntersectWithinRangeIterator(5, a, b)
	require.NoError(t, err)
	require.Equal(t, DocumentNumber(1), r.SkipDoc(1))
}

func TestIntersectWithinRangeIteratorRejectsTooSparse(t *testing.T) {
	a := leaf(PostingEntry{Doc: 1, Positions: []Position{1}})
	b := leaf(PostingEntry{Doc: 1, Positions: []Position{1000}})
	r, err := NewIntersectWithinRangeIterator(5, a, b)
	require.NoError(t, err)
	require.Equal(t, DocumentNumber(0), r.SkipDoc(1))
}

func TestIntersectWithinRangeIteratorRejectsTooManyOperands(t *testing.T) {
	ops := make([]PostingIterator, MaxNofArguments+1)
	for i := range ops {
		ops[i] = leaf(PostingEntry{Doc: 1, Positions: []Position{1}})
	}
	_, err := NewIntersectWithinRangeIterator(5, ops...)
	require.Error(t, err)
}

func TestSentenceIteratorMatchesWithinSameField(t *testing.T) {
	fields := []IndexRange{{Start: 1, End: 10}, {Start: 10, End: 20}}
	a := leaf(PostingEntry{Doc: 1, Positions: []Position{2}})
	b := leaf(PostingEntry{Doc: 1, Positions: []Position{8}})
	s := NewSentenceIterator(fields, a, b)
	require.Equal(t, DocumentNumber(1), s.SkipDoc(1))
}

func TestSentenceIteratorRejectsDifferentSentences(t *testing.T) {
	fields := []IndexRange{{Start: 1, End: 10}, {Start: 10, End: 20}}
	a := leaf(PostingEntry{Doc: 1, Positions: []Position{2}})
	b := leaf(PostingEntry{Doc: 1, Positions: []Position{15}})
	s := NewSentenceIterator(fields, a, b)
	require.Equal(t, DocumentNumber(0), s.SkipDoc(1))
}

func TestMetadataRangeIteratorFiltersByMetadata(t *testing.T) {
	base := leaf(
		PostingEntry{Doc: 1, Positions: []Position{1}},
		PostingEntry{Doc: 2, Positions: []Position{1}},
		PostingEntry{Doc: 3, Positions: []Position{1}},
	)
	meta := map[DocumentNumber]float64{1: 1.0, 2: 5.0, 3: 9.0}
	m := NewMetadataRangeIterator(base, func(d DocumentNumber) (float64, bool) {
		v, ok := meta[d]
		return v, ok
	}, 4.0, 9.0)

	require.Equal(t, DocumentNumber(2), m.SkipDoc(1))
	require.Equal(t, DocumentNumber(3), m.SkipDoc(3))
	require.Equal(t, DocumentNumber(0), m.SkipDoc(4))
}
