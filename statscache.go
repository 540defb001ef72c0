package engine

import (
	"sync"
	"sync/atomic"
)

// ═══════════════════════════════════════════════════════════════════════════════
// STATISTICS CACHE  (spec §4.6)
// ═══════════════════════════════════════════════════════════════════════════════
// Holds the corpus-wide document frequency for every interned term, indexed
// densely by TermNumber. Grounded on documentFrequencyCache.cpp: the counter
// array grows geometrically (double the capacity rather than growing
// one-by-one, since TermValueTable hands out ids monotonically and a message
// can introduce many new terms at once) and the whole array is replaced
// wholesale, copy-on-write, under a single writer mutex. Readers load an
// atomic pointer to the current snapshot and never block on a writer — the
// "peer transaction" protocol (ApplyMessage / a corresponding reply blob for
// a peer catching up) is just StatisticsBuilder/StatisticsViewer plus this
// cache on the receiving end.
// ═══════════════════════════════════════════════════════════════════════════════

type dfSnapshot struct {
	counts  []int64 // dense by TermNumber; counts[0] unused (TermNumber 0 is reserved)
	nofDocs int64
}

// StatisticsCache maintains a live, lock-free-readable view of document
// frequencies and total document count, fed by statistics messages.
type StatisticsCache struct {
	types  *TermTypeTable
	values *TermValueTable

	writeMu sync.Mutex // serializes ApplyMessage calls
	snap    atomic.Pointer[dfSnapshot]
}

// NewStatisticsCache constructs an empty cache sharing symbol tables with the
// rest of storage, so decoded term types/values resolve to the same ids.
func NewStatisticsCache(types *TermTypeTable, values *TermValueTable) *StatisticsCache {
	c := &StatisticsCache{types: types, values: values}
	c.snap.Store(&dfSnapshot{})
	return c
}

// growCounts returns a fresh copy of old sized to hold at least need
// entries, doubling capacity geometrically rather than growing exactly to
// need. It always allocates, even when no growth is required, since the
// result becomes part of a new snapshot published to concurrent readers and
// must never alias the array they may still be reading.
func growCounts(old []int64, need int) []int64 {
	size := len(old)
	if size < need {
		size = need
		if dbl := len(old) * 2; dbl > size {
			size = dbl
		}
	}
	grown := make([]int64, size)
	copy(grown, old)
	return grown
}

// ApplyMessage decodes msg and folds its deltas into the cache, publishing a
// new snapshot atomically. Safe for concurrent use; writers serialize, but
// concurrent DF/TotalDocuments readers never block.
func (c *StatisticsCache) ApplyMessage(msg []byte) error {
	viewer := NewStatisticsViewer(c.types)
	decoded, err := viewer.Decode(msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	old := c.snap.Load()
	maxID := 0
	resolved := make([]TermNumber, len(decoded.Changes))
	for i, ch := range decoded.Changes {
		typeID, err := c.types.Intern(ch.TermType)
		if err != nil {
			return err
		}
		term, err := c.values.Intern(typeID, ch.TermValue)
		if err != nil {
			return err
		}
		resolved[i] = term
		if int(term) > maxID {
			maxID = int(term)
		}
	}

	counts := growCounts(old.counts, maxID+1)
	for i, term := range resolved {
		counts[term] += decoded.Changes[i].Delta
	}

	c.snap.Store(&dfSnapshot{counts: counts, nofDocs: old.nofDocs + decoded.DocumentCountChange})
	return nil
}

// DF returns the current document frequency for (termType, termValue).
func (c *StatisticsCache) DF(termType, termValue string) int64 {
	typeID, ok := c.types.Lookup(termType)
	if !ok {
		return 0
	}
	term, ok := c.values.Lookup(typeID, termValue)
	if !ok {
		return 0
	}
	return c.DFByTerm(term)
}

// DFByTerm returns the current document frequency for an already-resolved
// TermNumber.
func (c *StatisticsCache) DFByTerm(term TermNumber) int64 {
	snap := c.snap.Load()
	if int(term) >= len(snap.counts) {
		return 0
	}
	return snap.counts[term]
}

// TotalDocuments returns the corpus-wide document count the cache currently
// reflects.
func (c *StatisticsCache) TotalDocuments() int64 {
	return c.snap.Load().nofDocs
}
