package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRestrictionSetAddContains(t *testing.T) {
	r := NewRestrictionSet()
	r.Add(3)
	r.Add(7)
	require.True(t, r.Contains(3))
	require.True(t, r.Contains(7))
	require.False(t, r.Contains(4))
	require.Equal(t, 2, r.Cardinality())
}

func TestRestrictionSetAddRange(t *testing.T) {
	r := NewRestrictionSet()
	r.AddRange(10, 15)
	for d := DocumentNumber(10); d < 15; d++ {
		require.True(t, r.Contains(d))
	}
	require.False(t, r.Contains(15))
	require.Equal(t, 5, r.Cardinality())
}

func TestRestrictionSetUnionIntersectAndNot(t *testing.T) {
	a := NewRestrictionSet()
	a.Add(1)
	a.Add(2)
	a.Add(3)
	b := NewRestrictionSet()
	b.Add(2)
	b.Add(3)
	b.Add(4)

	union := a.Union(b)
	require.Equal(t, 4, union.Cardinality())

	inter := a.Intersect(b)
	require.Equal(t, 2, inter.Cardinality())
	require.True(t, inter.Contains(2))
	require.True(t, inter.Contains(3))

	diff := a.AndNot(b)
	require.Equal(t, 1, diff.Cardinality())
	require.True(t, diff.Contains(1))
}

func TestDocsetIteratorWalksAscending(t *testing.T) {
	r := NewRestrictionSet()
	r.Add(5)
	r.Add(9)
	r.Add(20)

	it := r.Iterator()
	require.Equal(t, DocumentNumber(5), it.SkipDoc(0))
	require.Equal(t, DocumentNumber(5), it.Doc())
	require.Equal(t, DocumentNumber(9), it.SkipDoc(6))
	require.Equal(t, DocumentNumber(20), it.SkipDoc(10))
	require.Equal(t, DocumentNumber(0), it.SkipDoc(21))
}

func TestDocsetIteratorSkipPosReflectsMembership(t *testing.T) {
	r := NewRestrictionSet()
	r.Add(5)
	it := r.Iterator()
	it.SkipDoc(5)
	require.Equal(t, Position(1), it.SkipPos(0))
	require.Equal(t, Position(0), it.SkipPos(2))
}

func TestDocsetIteratorDocumentFrequency(t *testing.T) {
	r := NewRestrictionSet()
	r.Add(1)
	r.Add(2)
	r.Add(3)
	it := r.Iterator().(*DocsetIterator)
	require.Equal(t, 3, it.DocumentFrequency())
}
