package engine

import "math"

// ═══════════════════════════════════════════════════════════════════════════════
// BM25pff WEIGHTING FUNCTION  (spec §4.4)
// ═══════════════════════════════════════════════════════════════════════════════
// Classical BM25 scores a term purely by how often it occurs and how rare
// it is corpus-wide. BM25pff blends that with the proximity feature-
// frequency weight from ProximityWeightingContext: a document where the
// query terms cluster together scores higher than one where they're spread
// across unrelated sections, even at equal raw term frequency. It keeps
// BM25's IDF formula — the smoothed log-odds form the teacher's
// calculateIDF already uses — and layers on:
//
//   - a high-df suppression term, damping idf for terms so common they
//     carry little discriminating power even after the smoothing floor
//     (spec.md's "high-df suppression");
//   - a title increment, a flat bonus TermScore adds once per query term
//     whose TermDocStats.TitleMatch is set (ProximityWeightingContext already
//     folds a title bonus into ff itself; this layer adds a second, coarser
//     bump per term that occurs in title scope).
// ═══════════════════════════════════════════════════════════════════════════════

// BM25pffParams holds the tunable constants, defaulting in the same style as
// the teacher's BM25Parameters/DefaultBM25Parameters.
type BM25pffParams struct {
	K1 float64
	B  float64

	// FfBlend is how much weight the proximity ff contributes relative to
	// the classical term frequency, in [0,1]; 0 reduces to plain BM25.
	FfBlend float64

	// HighDfSuppression: once df/N exceeds this fraction, idf is scaled
	// down further, since the smoothed log-odds formula alone can still
	// assign a small positive idf to extremely common terms.
	HighDfSuppression float64

	// TitleIncrement is added to a document's score once per query term
	// that has at least one title-scope occurrence in that document.
	TitleIncrement float64
}

// DefaultBM25pffParams mirrors DefaultBM25Parameters's K1/B and adds the
// proximity/suppression/title defaults used throughout this package's tests.
func DefaultBM25pffParams() BM25pffParams {
	return BM25pffParams{
		K1:                1.2,
		B:                 0.75,
		FfBlend:           0.3,
		HighDfSuppression: 0.5,
		TitleIncrement:    0.25,
	}
}

// IDF computes the smoothed BM25 inverse document frequency for a term with
// document frequency df in a corpus of totalDocs documents, applying high-df
// suppression once df exceeds the configured fraction of totalDocs.
func (p BM25pffParams) IDF(df, totalDocs int) float64 {
	if df <= 0 || totalDocs <= 0 {
		return 0
	}
	N := float64(totalDocs)
	dff := float64(df)
	idf := math.Log((N-dff+0.5)/(dff+0.5) + 1.0)
	if dff/N > p.HighDfSuppression {
		idf *= (1.0 - (dff/N - p.HighDfSuppression))
		if idf < 0 {
			idf = 0
		}
	}
	return idf
}

// TermScore computes one term's BM25pff contribution to a document's score.
//   - tf is the raw term frequency in the document.
//   - ffWeight is the proximity feature-frequency weight for this term in
//     this document (ProximityWeightingContext.CollectFieldStatistics).
//   - docLen / avgDocLen are the document's and corpus's length in words.
//   - titleMatch reports whether the term occurred at least once in the
//     document's title field.
func (p BM25pffParams) TermScore(idf float64, tf int, ffWeight float64, docLen int, avgDocLen float64, titleMatch bool) float64 {
	if tf <= 0 || avgDocLen <= 0 {
		return 0
	}
	tfF := float64(tf)
	blended := tfF*(1-p.FfBlend) + ffWeight*p.FfBlend
	lengthNorm := 1 - p.B + p.B*(float64(docLen)/avgDocLen)
	normalizedTF := (blended * (p.K1 + 1)) / (blended + p.K1*lengthNorm)
	score := idf * normalizedTF
	if titleMatch {
		score += p.TitleIncrement
	}
	return score
}

// DocumentScore sums TermScore across every query term's statistics for one
// document, the top-level entry point the query evaluator calls per
// candidate.
type TermDocStats struct {
	DF         int
	TF         int
	FfWeight   float64
	TitleMatch bool
}

func (p BM25pffParams) DocumentScore(stats []TermDocStats, totalDocs, docLen int, avgDocLen float64) float64 {
	var total float64
	for _, s := range stats {
		idf := p.IDF(s.DF, totalDocs)
		total += p.TermScore(idf, s.TF, s.FfWeight, docLen, avgDocLen, s.TitleMatch)
	}
	return total
}
