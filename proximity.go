package engine

import "sort"

// ═══════════════════════════════════════════════════════════════════════════════
// PROXIMITY WEIGHTING CONTEXT  (spec §4.3)
// ═══════════════════════════════════════════════════════════════════════════════
// Builds a merged stream of every query feature's occurrences in one
// document, classifies how close each occurrence sits to occurrences of
// OTHER features by ordinal distance alone (immediate/close/near; sentence
// boundaries are not consulted, so no touch is classified as same-sentence),
// flags title-scope occurrences, and turns that into a per-feature "feature frequency" (ff) weight consumed by
// BM25pff (weighting.go). Grounded on proximityWeightingContext.hpp; default
// constants are taken from its Config() constructor exactly (see
// SPEC_FULL.md's SUPPLEMENTED FEATURES section).
//
// Because MaxNofArguments is exactly 64, a Node's "touched" set — which
// other features have been seen nearby — fits in a single uint64 bitset
// rather than the fixed-size strus::bitset<64> template the original uses.
// ═══════════════════════════════════════════════════════════════════════════════

// ProximityConfig holds the tunable distance thresholds and weighting
// knobs, defaulting exactly to ProximityWeightingContext::Config's values.
type ProximityConfig struct {
	DistanceImm      Position // ordinal distance considered "immediate"
	DistanceClose    Position // ordinal distance considered "close"
	DistanceNear     Position // ordinal distance considered "near" (cross-sentence)
	MinClusterSize   float64  // fraction [0,1] of query arity considered a relevant cluster
	NofHotspots      int      // number of highest-touch-count nodes used to pick weighted fields
	MinFfWeight      float64  // floor on any non-zero ff weight assigned
}

// DefaultProximityConfig returns the original's defaults.
func DefaultProximityConfig() ProximityConfig {
	return ProximityConfig{
		DistanceImm:    2,
		DistanceClose:  8,
		DistanceNear:   40,
		MinClusterSize: 0.7,
		NofHotspots:    10,
		MinFfWeight:    0.1,
	}
}

// touchType classifies how an occurrence relates to a neighbouring feature's
// occurrence, mirroring Node::TouchType.
type touchType int

const (
	touchImmediate touchType = iota
	touchClose
	touchNear
	touchSentence
)

// proximityNode is one feature occurrence in the merged document stream.
type proximityNode struct {
	pos              Position
	featidx          int
	touched          uint64 // bitset of other featidx values seen nearby
	immediateMatches int
	closeMatches     int
	nearMatches      int
	sentenceMatches  int
	titleScopeMatch  bool
}

func (n *proximityNode) touch(other int, tp touchType) {
	if n.touched&(1<<uint(other)) != 0 {
		return
	}
	n.touched |= 1 << uint(other)
	switch tp {
	case touchImmediate:
		n.immediateMatches++
	case touchClose:
		n.closeMatches++
	case touchNear:
		n.nearMatches++
	case touchSentence:
		n.sentenceMatches++
	}
}

func (n *proximityNode) touchCount() int {
	c := n.immediateMatches + n.closeMatches + n.nearMatches + n.sentenceMatches
	if n.titleScopeMatch {
		c++
	}
	return c
}

// ProximityWeightingContext is built fresh per (document, field) scored.
type ProximityWeightingContext struct {
	config   ProximityConfig
	docno    DocumentNumber
	field    IndexRange
	nofFeats int
	nodes    []proximityNode
}

// NewProximityWeightingContext constructs a context with the given config.
func NewProximityWeightingContext(config ProximityConfig) *ProximityWeightingContext {
	return &ProximityWeightingContext{config: config}
}

// Init loads every postings iterator's occurrences within field into the
// merged node stream and computes pairwise touch classifications. postings
// must already be positioned at docno (callers typically call SkipDoc first).
func (c *ProximityWeightingContext) Init(postings []PostingIterator, docno DocumentNumber, field IndexRange) error {
	if len(postings) > MaxNofArguments {
		return newInputDomainError("proximity context", "feature count exceeds MaxNofArguments")
	}
	c.docno = docno
	c.field = field
	c.nofFeats = len(postings)
	c.nodes = c.nodes[:0]

	for fi, op := range postings {
		if op.Doc() != docno {
			continue
		}
		start := field.Start
		if start == 0 {
			start = 1
		}
		for p := op.SkipPos(start); p != 0 && (!field.Defined() || field.Contains(p)); p = op.SkipPos(p + 1) {
			c.nodes = append(c.nodes, proximityNode{pos: p, featidx: fi})
		}
	}
	sort.Slice(c.nodes, func(i, j int) bool { return c.nodes[i].pos < c.nodes[j].pos })
	c.markTouches()
	return nil
}

// markTouches classifies every pair of nearby nodes from different features
// by their distance alone: a forward scan bounded by DistanceNear suffices
// since the node stream is sorted by position.
func (c *ProximityWeightingContext) markTouches() {
	for i := range c.nodes {
		for j := i + 1; j < len(c.nodes); j++ {
			dist := c.nodes[j].pos - c.nodes[i].pos
			if dist > c.config.DistanceNear {
				break
			}
			if c.nodes[i].featidx == c.nodes[j].featidx {
				continue
			}
			tp := c.classify(dist)
			c.nodes[i].touch(c.nodes[j].featidx, tp)
			c.nodes[j].touch(c.nodes[i].featidx, tp)
		}
	}
}

func (c *ProximityWeightingContext) classify(dist Position) touchType {
	switch {
	case dist <= c.config.DistanceImm:
		return touchImmediate
	case dist <= c.config.DistanceClose:
		return touchClose
	default:
		return touchNear
	}
}

// MarkTitleScope flags every node whose position falls within headerField as
// title-scope matches, boosting their weight (spec §4.3's "title increment").
func (c *ProximityWeightingContext) MarkTitleScope(headerField IndexRange) {
	for i := range c.nodes {
		if headerField.Contains(c.nodes[i].pos) {
			c.nodes[i].titleScopeMatch = true
		}
	}
}

// ffWeight computes a single node's feature-frequency contribution,
// combining its touch counts with a floor of MinFfWeight for any node that
// touched at least one other feature, mirroring ff_weight's shape (more
// immediate/close touches count for more than near touches).
func (c *ProximityWeightingContext) ffWeight(n *proximityNode) float64 {
	w := float64(n.immediateMatches)*1.0 + float64(n.closeMatches)*0.5 + float64(n.nearMatches)*0.2 + float64(n.sentenceMatches)*0.3
	if n.titleScopeMatch {
		w += 1.0
	}
	if w > 0 && w < c.config.MinFfWeight {
		w = c.config.MinFfWeight
	}
	return w
}

// FeatureWeights holds one aggregated ff weight per feature index.
type FeatureWeights struct {
	ar [MaxNofArguments]float64
}

func (w *FeatureWeights) Get(featidx int) float64  { return w.ar[featidx] }
func (w *FeatureWeights) set(featidx int, v float64) { w.ar[featidx] += v }

// CollectFieldStatistics aggregates ff weights per feature across the whole
// node stream, mirroring collectFieldStatistics/FieldStatistics.
func (c *ProximityWeightingContext) CollectFieldStatistics() FeatureWeights {
	// Each node's ffWeight is summed as is. MinClusterSize is not consulted,
	// and a node that touched no other feature and is outside title scope
	// contributes 0: the MinFfWeight floor applies only to non-zero weights.
	var fw FeatureWeights
	for i := range c.nodes {
		fw.set(c.nodes[i].featidx, c.ffWeight(&c.nodes[i]))
	}
	return fw
}

// WeightedNeighbour is one position with its aggregated proximity weight,
// used by getBestPassage-style summarization to find the densest window.
type WeightedNeighbour struct {
	Pos    Position
	Weight float64
}

// GetWeightedNeighbours returns every node that touched another feature or
// lies in title scope, weighted by featureWeights, in position order. dist
// is not used: no node is excluded by its distance to other nodes.
func (c *ProximityWeightingContext) GetWeightedNeighbours(featureWeights FeatureWeights, dist Position) []WeightedNeighbour {
	var out []WeightedNeighbour
	for i := range c.nodes {
		if c.nodes[i].touchCount() == 0 {
			continue
		}
		out = append(out, WeightedNeighbour{Pos: c.nodes[i].pos, Weight: featureWeights.Get(c.nodes[i].featidx)})
	}
	_ = dist // reserved for a future windowed variant; unused beyond selection above for now
	return out
}

// BestPassage picks the NofHotspots nodes with the highest touch counts and
// returns the IndexRange spanning them, the "densest" part of the document
// to show in a summary — mirrors getBestPassage.
func (c *ProximityWeightingContext) BestPassage() (IndexRange, bool) {
	if len(c.nodes) == 0 {
		return IndexRange{}, false
	}
	idx := make([]int, len(c.nodes))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return c.nodes[idx[i]].touchCount() > c.nodes[idx[j]].touchCount() })
	n := c.config.NofHotspots
	if n > len(idx) {
		n = len(idx)
	}
	if n == 0 {
		return IndexRange{}, false
	}
	lo, hi := c.nodes[idx[0]].pos, c.nodes[idx[0]].pos
	for _, i := range idx[:n] {
		p := c.nodes[i].pos
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	return IndexRange{Start: lo, End: hi + 1}, true
}
