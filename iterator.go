package engine

import "sort"

// ═══════════════════════════════════════════════════════════════════════════════
// POSTING ITERATOR CONTRACT  (spec §4.2)
// ═══════════════════════════════════════════════════════════════════════════════
// Every posting source — a term's raw occurrences, or a join of several —
// implements the same three-method contract:
//
//   - SkipDoc advances to the first document >= docno that the iterator
//     actually matches, confirming any candidate work eagerly. Returns 0
//     (no valid DocumentNumber) once exhausted.
//   - SkipDocCandidate advances to the first document >= docno that MIGHT
//     match — cheaper than SkipDoc for iterators that can produce
//     unconfirmed candidates (e.g. an intersect-within-range iterator can
//     report a candidate doc before checking the range holds). Leaf
//     iterators have no cheaper candidate test than the real thing, so
//     SkipDocCandidate == SkipDoc for them.
//   - SkipPos advances within the current document to the first position
//     >= pos, returning 0 once that document's positions are exhausted.
//
// This lets join iterators (joiniterators.go) compose without knowing
// whether their operands are leaves or other joins.
// ═══════════════════════════════════════════════════════════════════════════════

// PostingIterator is the shared contract for leaf and join posting sources.
type PostingIterator interface {
	// SkipDoc confirms-and-advances to the first matching document >= docno.
	SkipDoc(docno DocumentNumber) DocumentNumber
	// SkipDocCandidate advances to the first possibly-matching document >= docno.
	SkipDocCandidate(docno DocumentNumber) DocumentNumber
	// SkipPos advances within the current document to the first position >= pos.
	SkipPos(pos Position) Position
	// Doc returns the document the iterator currently sits on, or 0.
	Doc() DocumentNumber
}

// PostingLeafIterator walks a single term's posting blocks in document
// order. It loads every block for the term up front via a single ordered
// Scan: posting lists are expected to fit comfortably in memory per query
// (spec.md's scale target), so eagerly decoding trades a small amount of
// memory for a simpler, allocation-light skip implementation.
type PostingLeafIterator struct {
	term    TermNumber
	entries []PostingEntry
	docIdx  int // index into entries of the current document, or len(entries) if exhausted
	posIdx  int // index into entries[docIdx].Positions of the current position
}

// NewPostingLeafIterator loads every posting block for term from store.
func NewPostingLeafIterator(store KVStore, term TermNumber) (*PostingLeafIterator, error) {
	it := &PostingLeafIterator{term: term}
	start := PostingTermPrefix(term)
	end := PostingTermPrefixEnd(term)
	var scanErr error
	err := store.Scan(start, end, func(key, value []byte) bool {
		entries, derr := DecodePostingBlock(value)
		if derr != nil {
			scanErr = derr
			return false
		}
		it.entries = append(it.entries, entries...)
		return true
	})
	if err != nil {
		return nil, err
	}
	if scanErr != nil {
		return nil, scanErr
	}
	return it, nil
}

// newPostingLeafIteratorFromEntries builds a leaf iterator directly from an
// already-decoded entry list, used by tests and by callers (e.g. the
// write-path staging buffer) that hold postings in memory rather than in a
// KVStore.
func newPostingLeafIteratorFromEntries(term TermNumber, entries []PostingEntry) *PostingLeafIterator {
	return &PostingLeafIterator{term: term, entries: entries}
}

func (it *PostingLeafIterator) SkipDoc(docno DocumentNumber) DocumentNumber {
	i := sort.Search(len(it.entries), func(i int) bool { return it.entries[i].Doc >= docno })
	it.docIdx = i
	it.posIdx = 0
	if i >= len(it.entries) {
		return 0
	}
	return it.entries[i].Doc
}

func (it *PostingLeafIterator) SkipDocCandidate(docno DocumentNumber) DocumentNumber {
	return it.SkipDoc(docno)
}

func (it *PostingLeafIterator) SkipPos(pos Position) Position {
	if it.docIdx >= len(it.entries) {
		return 0
	}
	positions := it.entries[it.docIdx].Positions
	i := sort.Search(len(positions), func(i int) bool { return positions[i] >= pos })
	it.posIdx = i
	if i >= len(positions) {
		return 0
	}
	return positions[i]
}

func (it *PostingLeafIterator) Doc() DocumentNumber {
	if it.docIdx >= len(it.entries) {
		return 0
	}
	return it.entries[it.docIdx].Doc
}

// DocumentFrequency returns the number of documents this iterator's
// underlying term occurs in, used directly by the BM25pff weighting
// function's idf term (weighting.go).
func (it *PostingLeafIterator) DocumentFrequency() int {
	return len(it.entries)
}

// Reset rewinds the iterator to its initial, unadvanced state.
func (it *PostingLeafIterator) Reset() {
	it.docIdx = 0
	it.posIdx = 0
}
