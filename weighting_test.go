package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBM25pffIDFDecreasesWithDocumentFrequency(t *testing.T) {
	p := DefaultBM25pffParams()
	rare := p.IDF(5, 1000)
	common := p.IDF(500, 1000)
	require.Greater(t, rare, common)
}

func TestBM25pffIDFZeroForDegenerateInputs(t *testing.T) {
	p := DefaultBM25pffParams()
	require.Equal(t, 0.0, p.IDF(0, 1000))
	require.Equal(t, 0.0, p.IDF(5, 0))
}

func TestBM25pffHighDfSuppressionDampensVeryCommonTerms(t *testing.T) {
	p := DefaultBM25pffParams()
	withoutSuppression := p
	withoutSuppression.HighDfSuppression = 1.0
	suppressed := p.IDF(900, 1000)
	unsuppressed := withoutSuppression.IDF(900, 1000)
	require.Less(t, suppressed, unsuppressed)
}

func TestBM25pffTermScoreRewardsProximityAndTitle(t *testing.T) {
	p := DefaultBM25pffParams()
	idf := p.IDF(10, 1000)

	base := p.TermScore(idf, 3, 0, 200, 150, false)
	withProximity := p.TermScore(idf, 3, 10, 200, 150, false)
	require.Greater(t, withProximity, base)

	withTitle := p.TermScore(idf, 3, 0, 200, 150, true)
	require.InDelta(t, base+p.TitleIncrement, withTitle, 1e-9)
}

func TestBM25pffDocumentScoreSumsTerms(t *testing.T) {
	p := DefaultBM25pffParams()
	stats := []TermDocStats{
		{DF: 10, TF: 3, FfWeight: 1.0},
		{DF: 50, TF: 1, FfWeight: 0.5},
	}
	total := p.DocumentScore(stats, 1000, 200, 150)
	single := p.TermScore(p.IDF(10, 1000), 3, 1.0, 200, 150, false)
	require.Greater(t, total, single)
}
