package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func wordText(words map[TermNumber]string) TermText {
	return func(t TermNumber) string { return words[t] }
}

func TestMatchSummarizerReportsMatchedTerms(t *testing.T) {
	it := leaf(PostingEntry{Doc: 1, Positions: []Position{1, 5}})
	it.SkipDoc(1)
	s := &MatchSummarizer{
		Postings: []PostingIterator{it},
		Terms:    []TermNumber{7},
		Text:     wordText(map[TermNumber]string{7: "cat"}),
	}
	elems, err := s.Summarize(1)
	require.NoError(t, err)
	require.Len(t, elems, 1)
	require.Equal(t, "match", elems[0].Name)
	require.Equal(t, "cat", elems[0].Value)
	require.Equal(t, float64(2), elems[0].Weight)
}

func TestForwardIndexSummarizerRendersWindow(t *testing.T) {
	store := NewMemKVStore()
	fwd := NewForwardIndex(store)
	require.NoError(t, fwd.Put(1, []ForwardIndexEntry{
		{Pos: 1, Term: 1}, {Pos: 2, Term: 2}, {Pos: 3, Term: 3},
	}))
	s := &ForwardIndexSummarizer{
		Index: fwd,
		Text:  wordText(map[TermNumber]string{1: "the", 2: "quick", 3: "fox"}),
		Field: IndexRange{Start: 1, End: 3},
		Name:  "content",
	}
	elems, err := s.Summarize(1)
	require.NoError(t, err)
	require.Len(t, elems, 1)
	require.Equal(t, "the quick", elems[0].Value)
}

func TestAccumulateVariableSummarizerEmitsAttributes(t *testing.T) {
	store := NewMemKVStore()
	attrs := NewAttributeStore(store)
	require.NoError(t, attrs.Set(1, "author", "ada"))
	require.NoError(t, attrs.Set(1, "date", "2020"))
	s := &AccumulateVariableSummarizer{Attributes: attrs, Names: []string{"author", "date", "missing"}}
	elems, err := s.Summarize(1)
	require.NoError(t, err)
	require.Len(t, elems, 2)
}

func TestStructureHeaderSummarizerRendersTitle(t *testing.T) {
	store := NewMemKVStore()
	fwd := NewForwardIndex(store)
	require.NoError(t, fwd.Put(1, []ForwardIndexEntry{
		{Pos: 1, Term: 1}, {Pos: 2, Term: 2}, {Pos: 3, Term: 3},
	}))
	structs := NewStructureStore(store)
	require.NoError(t, structs.Set(1, "title", []IndexRange{{Start: 1, End: 3}}))
	s := &StructureHeaderSummarizer{
		Structures: structs,
		Index:      fwd,
		Text:       wordText(map[TermNumber]string{1: "big", 2: "news"}),
		Structure:  "title",
		Name:       "title",
	}
	elems, err := s.Summarize(1)
	require.NoError(t, err)
	require.Len(t, elems, 1)
	require.Equal(t, "big news", elems[0].Value)
}

func TestAccumulateNearSummarizerUsesBestPassage(t *testing.T) {
	store := NewMemKVStore()
	fwd := NewForwardIndex(store)
	require.NoError(t, fwd.Put(1, []ForwardIndexEntry{
		{Pos: 1, Term: 1}, {Pos: 2, Term: 2}, {Pos: 3, Term: 3},
	}))
	a := leaf(PostingEntry{Doc: 1, Positions: []Position{1}})
	b := leaf(PostingEntry{Doc: 1, Positions: []Position{2}})
	a.SkipDoc(1)
	b.SkipDoc(1)
	ctx := NewProximityWeightingContext(DefaultProximityConfig())
	require.NoError(t, ctx.Init([]PostingIterator{a, b}, 1, IndexRange{}))

	s := &AccumulateNearSummarizer{
		Context: ctx,
		Index:   fwd,
		Text:    wordText(map[TermNumber]string{1: "big", 2: "news", 3: "today"}),
		Name:    "near",
	}
	elems, err := s.Summarize(1)
	require.NoError(t, err)
	require.Len(t, elems, 1)
	require.Equal(t, "near", elems[0].Name)
}
