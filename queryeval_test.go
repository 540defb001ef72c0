package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func scoreByDoc(scores map[DocumentNumber]float64) Scorer {
	return func(doc DocumentNumber) (float64, bool) {
		s, ok := scores[doc]
		return s, ok
	}
}

func docEntries(docs ...DocumentNumber) []PostingEntry {
	entries := make([]PostingEntry, len(docs))
	for i, d := range docs {
		entries[i] = PostingEntry{Doc: d, Positions: []Position{1}}
	}
	return entries
}

func TestQueryEvaluatorRanksAcceptedCandidates(t *testing.T) {
	sel := leaf(docEntries(1, 2, 3, 4)...)
	ev := NewQueryEvaluator([]SelectionPass{{Priority: 0, Iterator: sel}}, 0, 2)
	result := ev.Evaluate(scoreByDoc(map[DocumentNumber]float64{1: 1, 2: 5, 3: 3, 4: 2}))
	require.Len(t, result.Results, 2)
	require.Equal(t, DocumentNumber(2), result.Results[0].Doc)
	require.Equal(t, DocumentNumber(3), result.Results[1].Doc)
	require.Equal(t, 4, result.NofVisited)
}

func TestQueryEvaluatorAppliesRestrictionAndExclusion(t *testing.T) {
	sel := leaf(docEntries(1, 2, 3, 4)...)
	ev := NewQueryEvaluator([]SelectionPass{{Priority: 0, Iterator: sel}}, 0, 10)

	restriction := NewRestrictionSet()
	restriction.Add(2)
	restriction.Add(3)
	restriction.Add(4)
	ev.Restrict(restriction)

	exclusion := NewRestrictionSet()
	exclusion.Add(3)
	ev.Exclude(exclusion)

	result := ev.Evaluate(scoreByDoc(map[DocumentNumber]float64{1: 9, 2: 1, 3: 9, 4: 2}))
	require.Len(t, result.Results, 2)
	docs := map[DocumentNumber]bool{}
	for _, r := range result.Results {
		docs[r.Doc] = true
	}
	require.True(t, docs[2])
	require.True(t, docs[4])
	require.False(t, docs[1])
	require.False(t, docs[3])
}

func TestQueryEvaluatorHonoursFirstOffset(t *testing.T) {
	sel := leaf(docEntries(1, 2, 3)...)
	ev := NewQueryEvaluator([]SelectionPass{{Priority: 0, Iterator: sel}}, 1, 1)
	result := ev.Evaluate(scoreByDoc(map[DocumentNumber]float64{1: 1, 2: 2, 3: 3}))
	require.Len(t, result.Results, 1)
	require.Equal(t, DocumentNumber(2), result.Results[0].Doc)
}

func TestQueryEvaluatorSortsPassesByPriority(t *testing.T) {
	high := leaf(docEntries(1)...)
	low := leaf(docEntries(2, 3)...)
	ev := NewQueryEvaluator([]SelectionPass{
		{Priority: 1, Iterator: low},
		{Priority: 0, Iterator: high},
	}, 0, 3)
	result := ev.Evaluate(scoreByDoc(map[DocumentNumber]float64{1: 1, 2: 2, 3: 3}))
	require.Len(t, result.Results, 3)
	require.Equal(t, 1, result.EvaluationPass)
}

func TestMergeQueryResultsCombinesShards(t *testing.T) {
	a := &QueryResult{
		Results:        []RankedDoc{{Doc: 1, Score: 9}, {Doc: 2, Score: 3}},
		NofVisited:     5,
		NofRanked:      2,
		EvaluationPass: 0,
	}
	b := &QueryResult{
		Results:        []RankedDoc{{Doc: 3, Score: 7}},
		NofVisited:     2,
		NofRanked:      1,
		EvaluationPass: 1,
	}
	merged := MergeQueryResults([]*QueryResult{a, b}, 2)
	require.Len(t, merged.Results, 2)
	require.Equal(t, DocumentNumber(1), merged.Results[0].Doc)
	require.Equal(t, DocumentNumber(3), merged.Results[1].Doc)
	require.Equal(t, 7, merged.NofVisited)
	require.Equal(t, 3, merged.NofRanked)
	require.Equal(t, 1, merged.EvaluationPass)
}
