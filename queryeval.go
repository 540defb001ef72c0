package engine

import "sort"

// ═══════════════════════════════════════════════════════════════════════════════
// QUERY EVALUATOR  (spec §4.8)
// ═══════════════════════════════════════════════════════════════════════════════
// Ties together a query's selection iterators, restriction/exclusion sets,
// and a caller-supplied scorer into ranked output. Grounded on query.go's
// QueryBuilder for the overall "combine sets, then execute" shape, but the
// boolean term algebra there is replaced by posting iterator algebra
// (joiniterators.go) plus roaring-backed restriction sets (restriction.go):
// restrictions compose as ANDs, exclusions as NANDs, exactly as
// QueryBuilder.Not()/negateBitmap do for term exclusion.
//
// Selection runs in priority passes: pass 0 is the highest-priority
// selection set, pass 1 the next, and so on. Each pass is walked to
// completion; if the ranker holds first+k documents at the end of a pass,
// evaluation stops there — lower-priority passes only matter when a
// higher-priority one could not supply enough results on its own.
// ═══════════════════════════════════════════════════════════════════════════════

// SelectionPass is one priority tier of a query's selection set.
type SelectionPass struct {
	Priority int
	Iterator PostingIterator
}

// Scorer computes a document's weight given its docno, returning ok=false to
// reject the candidate outright (e.g. a weighting iterator has no postings
// for it).
type Scorer func(doc DocumentNumber) (score float64, ok bool)

// QueryEvaluator executes one query end to end.
type QueryEvaluator struct {
	passes      []SelectionPass
	restriction *RestrictionSet // ANDed: doc must be a member, if set
	exclusion   *RestrictionSet // NANDed: doc must NOT be a member, if set
	first       int
	k           int
}

// NewQueryEvaluator constructs an evaluator returning the k results starting
// at offset first, in descending score order.
func NewQueryEvaluator(passes []SelectionPass, first, k int) *QueryEvaluator {
	sorted := append([]SelectionPass(nil), passes...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })
	return &QueryEvaluator{passes: sorted, first: first, k: k}
}

// Restrict sets the ACL / metadata restriction set a document must belong
// to in order to be considered.
func (e *QueryEvaluator) Restrict(set *RestrictionSet) { e.restriction = set }

// Exclude sets the set of documents to reject outright.
func (e *QueryEvaluator) Exclude(set *RestrictionSet) { e.exclusion = set }

// QueryResult is one query's ranked output, alongside the visited/ranked
// counters ranker.hpp tracks and the deepest evaluation pass reached.
type QueryResult struct {
	Results        []RankedDoc
	NofVisited     int
	NofRanked      int
	EvaluationPass int
}

func (e *QueryEvaluator) accept(doc DocumentNumber) bool {
	if e.restriction != nil && !e.restriction.Contains(doc) {
		return false
	}
	if e.exclusion != nil && e.exclusion.Contains(doc) {
		return false
	}
	return true
}

// Evaluate runs the pipeline: walk selection passes in priority order,
// apply restrictions/exclusions, score accepted candidates, and rank them.
func (e *QueryEvaluator) Evaluate(score Scorer) *QueryResult {
	rankerSize := e.first + e.k
	ranker := NewRanker(rankerSize)
	reached := 0

	for _, pass := range e.passes {
		reached = pass.Priority
		doc := pass.Iterator.SkipDoc(1)
		for doc != 0 {
			if e.accept(doc) {
				if s, ok := score(doc); ok {
					ranker.Insert(doc, s)
				}
			}
			doc = pass.Iterator.SkipDoc(doc + 1)
		}
		if rankerSize > 0 && ranker.NofRanked() >= rankerSize {
			break
		}
	}

	all := ranker.Results()
	var windowed []RankedDoc
	if e.first < len(all) {
		end := e.first + e.k
		if end > len(all) || e.k <= 0 {
			end = len(all)
		}
		windowed = all[e.first:end]
	}

	return &QueryResult{
		Results:        windowed,
		NofVisited:     ranker.NofVisited(),
		NofRanked:      ranker.NofRanked(),
		EvaluationPass: reached,
	}
}

// MergeQueryResults combines per-shard QueryResults into one, the role
// QueryResult::merge plays for a federated deployment: interleave by
// descending score (ties broken by smaller docno), keep the top k, sum the
// visited/ranked counters, and keep the deepest evaluation pass reached by
// any shard.
func MergeQueryResults(shardResults []*QueryResult, k int) *QueryResult {
	merged := &QueryResult{}
	var all []RankedDoc
	for _, r := range shardResults {
		if r == nil {
			continue
		}
		all = append(all, r.Results...)
		merged.NofVisited += r.NofVisited
		merged.NofRanked += r.NofRanked
		if r.EvaluationPass > merged.EvaluationPass {
			merged.EvaluationPass = r.EvaluationPass
		}
	}
	sort.Slice(all, func(i, j int) bool { return !rankedLess(all[i], all[j]) })
	if k > 0 && len(all) > k {
		all = all[:k]
	}
	merged.Results = all
	return merged
}
