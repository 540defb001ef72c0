package engine

import (
	"github.com/RoaringBitmap/roaring"
)

// ═══════════════════════════════════════════════════════════════════════════════
// RESTRICTION SETS  (spec §4.9)
// ═══════════════════════════════════════════════════════════════════════════════
// A restriction set names the documents a query is allowed to touch (an ACL
// view, a metadata filter materialized ahead of time, a date-range slice);
// an exclusion set names the ones it must not. Both are plain sets of
// DocumentNumbers and roaring.Bitmap is the natural backing for them — dense
// runs of included/excluded documents compress to almost nothing, and the
// set operations a query evaluator needs (union, intersect, andNot) are
// exactly what the library offers. Grounded on query.go's QueryBuilder,
// which uses the same library for boolean term-set algebra; here the bitmap
// holds documents rather than terms.
//
// RestrictionSet also exposes itself as a PostingIterator (DocsetIterator)
// so the query evaluator can fold a restriction into a join just like any
// other posting list, mirroring docsetPostingIterator.hpp's role of letting
// an arbitrary document set participate in iterator algebra.
// ═══════════════════════════════════════════════════════════════════════════════

// RestrictionSet is a mutable set of document numbers.
type RestrictionSet struct {
	bitmap *roaring.Bitmap
}

// NewRestrictionSet constructs an empty restriction set.
func NewRestrictionSet() *RestrictionSet {
	return &RestrictionSet{bitmap: roaring.NewBitmap()}
}

// Add includes doc in the set.
func (r *RestrictionSet) Add(doc DocumentNumber) {
	r.bitmap.Add(uint32(doc))
}

// AddRange includes every document number in [from, to).
func (r *RestrictionSet) AddRange(from, to DocumentNumber) {
	r.bitmap.AddRange(uint64(from), uint64(to))
}

// Remove excludes doc from the set.
func (r *RestrictionSet) Remove(doc DocumentNumber) {
	r.bitmap.Remove(uint32(doc))
}

// Contains reports whether doc is a member.
func (r *RestrictionSet) Contains(doc DocumentNumber) bool {
	return r.bitmap.Contains(uint32(doc))
}

// Cardinality returns the number of documents in the set.
func (r *RestrictionSet) Cardinality() int {
	return int(r.bitmap.GetCardinality())
}

// Union returns a new set containing documents in either r or other.
func (r *RestrictionSet) Union(other *RestrictionSet) *RestrictionSet {
	return &RestrictionSet{bitmap: roaring.Or(r.bitmap, other.bitmap)}
}

// Intersect returns a new set containing documents in both r and other.
func (r *RestrictionSet) Intersect(other *RestrictionSet) *RestrictionSet {
	return &RestrictionSet{bitmap: roaring.And(r.bitmap, other.bitmap)}
}

// AndNot returns a new set containing documents in r but not in other — the
// shape a restriction-minus-exclusion combination takes.
func (r *RestrictionSet) AndNot(other *RestrictionSet) *RestrictionSet {
	return &RestrictionSet{bitmap: roaring.AndNot(r.bitmap, other.bitmap)}
}

// Iterator returns a PostingIterator walking the set's members in ascending
// order, so it can be folded into join iterator algebra alongside term
// posting lists.
func (r *RestrictionSet) Iterator() PostingIterator {
	return &DocsetIterator{bitmap: r.bitmap, it: r.bitmap.Iterator()}
}

// DocsetIterator adapts a roaring.Bitmap to the PostingIterator contract. It
// carries no position information — SkipPos reports the single position 1
// for the current document, since restriction/exclusion sets restrict by
// document only.
type DocsetIterator struct {
	bitmap  *roaring.Bitmap
	it      roaring.IntPeekable
	current DocumentNumber
}

// NewDocsetIterator builds a DocsetIterator directly from a bitmap, useful
// when the caller already has one (e.g. an externally supplied ACL view)
// rather than a RestrictionSet.
func NewDocsetIterator(bitmap *roaring.Bitmap) *DocsetIterator {
	return &DocsetIterator{bitmap: bitmap, it: bitmap.Iterator()}
}

func (d *DocsetIterator) SkipDoc(doc DocumentNumber) DocumentNumber {
	if doc == 0 {
		doc = 1
	}
	if d.current != 0 && d.current >= doc {
		return d.current
	}
	d.it.AdvanceIfNeeded(uint32(doc))
	if !d.it.HasNext() {
		d.current = 0
		return 0
	}
	d.current = DocumentNumber(d.it.Next())
	return d.current
}

func (d *DocsetIterator) SkipDocCandidate(doc DocumentNumber) DocumentNumber {
	return d.SkipDoc(doc)
}

func (d *DocsetIterator) SkipPos(pos Position) Position {
	if d.current == 0 {
		return 0
	}
	if pos <= 1 {
		return 1
	}
	return 0 // a document-only set has no second position to offer
}

func (d *DocsetIterator) Doc() DocumentNumber {
	return d.current
}

func (d *DocsetIterator) DocumentFrequency() int {
	return int(d.bitmap.GetCardinality())
}

func (d *DocsetIterator) Reset() {
	d.it = d.bitmap.Iterator()
	d.current = 0
}
