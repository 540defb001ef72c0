package engine

import (
	"container/heap"
	"sort"
)

// ═══════════════════════════════════════════════════════════════════════════════
// RANKER  (spec §4.8)
// ═══════════════════════════════════════════════════════════════════════════════
// Keeps the top-k highest-scoring (DocumentNumber, score) pairs seen so far,
// breaking ties by the smaller DocumentNumber (so results are deterministic
// regardless of visit order). Grounded on ranker.hpp's dual backing: a plain
// sorted small array is cheaper than a heap for the common case of a small
// k (insertion is O(k) but k is tiny and there's no heap bookkeeping
// overhead), so Ranker uses one for k up to rankerSmallArrayThreshold and
// switches to a container/heap-backed min-heap above it. ranker.hpp additionally tracks
// nofVisited (every candidate Insert was called with) and nofRanked (every
// candidate that made it into the top-k at some point) — both surfaced here
// per SPEC_FULL.md's supplement of that original behavior.
// ═══════════════════════════════════════════════════════════════════════════════

const rankerSmallArrayThreshold = 32

// RankedDoc is one scored result.
type RankedDoc struct {
	Doc   DocumentNumber
	Score float64
}

func rankedLess(a, b RankedDoc) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Doc > b.Doc // tie-break: smaller docno ranks higher, so it's "less" disposable
}

// Ranker accumulates scored documents and reports the top-k.
type Ranker struct {
	k         int
	nofVisited int
	nofRanked  int

	small []RankedDoc // used when k <= rankerSmallArrayThreshold, kept sorted ascending by rankedLess
	heap  *rankerHeap // used otherwise, a min-heap on rankedLess
}

// NewRanker constructs a ranker retaining the top k documents.
func NewRanker(k int) *Ranker {
	r := &Ranker{k: k}
	if k <= rankerSmallArrayThreshold {
		r.small = make([]RankedDoc, 0, k)
	} else {
		h := make(rankerHeap, 0, k)
		r.heap = &h
		heap.Init(r.heap)
	}
	return r
}

// Insert offers a candidate; it is kept only if it ranks in the current
// top-k. nofVisited always increments; nofRanked increments only when the
// candidate is actually retained.
func (r *Ranker) Insert(doc DocumentNumber, score float64) {
	r.nofVisited++
	cand := RankedDoc{Doc: doc, Score: score}
	if r.small != nil {
		r.insertSmall(cand)
		return
	}
	r.insertHeap(cand)
}

// insertSmall keeps r.small sorted ascending by rankedLess (index 0 is the
// weakest retained document, the last index the strongest).
func (r *Ranker) insertSmall(cand RankedDoc) {
	if len(r.small) == r.k {
		if !rankedLess(r.small[0], cand) {
			return // cand does not outrank the current weakest retained doc
		}
		r.small = r.small[1:]
	}
	i := 0
	for i < len(r.small) && rankedLess(r.small[i], cand) {
		i++
	}
	r.small = append(r.small, RankedDoc{})
	copy(r.small[i+1:], r.small[i:])
	r.small[i] = cand
	r.nofRanked++
}

func (r *Ranker) insertHeap(cand RankedDoc) {
	if r.heap.Len() < r.k {
		heap.Push(r.heap, cand)
		r.nofRanked++
		return
	}
	if len(*r.heap) > 0 && rankedLess((*r.heap)[0], cand) {
		heap.Pop(r.heap)
		heap.Push(r.heap, cand)
		r.nofRanked++
	}
}

// Results returns the retained documents sorted best-first (highest score,
// ties broken by smaller DocumentNumber).
func (r *Ranker) Results() []RankedDoc {
	var out []RankedDoc
	if r.small != nil {
		out = append(out, r.small...)
	} else {
		out = append(out, (*r.heap)...)
		// the heap array is only heap-ordered; sort it worst-first like r.small.
		sort.Slice(out, func(i, j int) bool { return rankedLess(out[i], out[j]) })
	}
	// out is now in ascending rankedLess order (worst-first); reverse for
	// best-first output.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// NofVisited returns how many candidates Insert was called with.
func (r *Ranker) NofVisited() int { return r.nofVisited }

// NofRanked returns how many candidates were ever retained in the top-k.
func (r *Ranker) NofRanked() int { return r.nofRanked }

// rankerHeap is a container/heap min-heap ordered by rankedLess, so the root
// is always the current weakest retained document.
type rankerHeap []RankedDoc

func (h rankerHeap) Len() int            { return len(h) }
func (h rankerHeap) Less(i, j int) bool  { return rankedLess(h[i], h[j]) }
func (h rankerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *rankerHeap) Push(x interface{}) { *h = append(*h, x.(RankedDoc)) }
func (h *rankerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}
