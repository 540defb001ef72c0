package engine

import "sort"

// ═══════════════════════════════════════════════════════════════════════════════
// SUMMARIZER FAMILY  (spec §4.9, supplemented)
// ═══════════════════════════════════════════════════════════════════════════════
// Once the ranker (ranker.go) has settled on the top-k documents, summarizers
// visit each one to build display elements out of the forward index and
// proximity context. Every summarizer here implements the same narrow
// Summarizer interface so a query evaluator can run a configured list of
// them uniformly, matching the original's "pluggable summarizer" design
// (Summarizer/SummarizerFunctionInstance) without carrying over its
// factory/interface-registration machinery, which has no counterpart in
// this module's scope.
// ═══════════════════════════════════════════════════════════════════════════════

// SummaryElement is one (name, value) pair a summarizer contributes, with a
// weight so QueryResult::merge-style aggregation can sum same-named elements
// across shards.
type SummaryElement struct {
	Name   string
	Value  string
	Weight float64
}

// Summarizer produces summary elements for a single retained document.
type Summarizer interface {
	Summarize(doc DocumentNumber) ([]SummaryElement, error)
}

// TermText resolves a TermNumber back to display text, decoupling
// summarizers from symbol table internals.
type TermText func(TermNumber) string

// ───────────────────────────────────────────────────────────────────────────
// matches: list the query features actually found in the document, one
// element per matching posting iterator, in the order of Postings.
// ───────────────────────────────────────────────────────────────────────────

// MatchSummarizer reports which query terms matched in a document and at
// how many positions, by walking the same postings the evaluator selected
// with, once positioned at doc.
type MatchSummarizer struct {
	Postings []PostingIterator
	Text     TermText
	Terms    []TermNumber // Postings[i] corresponds to Terms[i]
}

func (s *MatchSummarizer) Summarize(doc DocumentNumber) ([]SummaryElement, error) {
	var out []SummaryElement
	for i, it := range s.Postings {
		if it.Doc() != doc {
			continue
		}
		count := 0
		for p := it.SkipPos(1); p != 0; p = it.SkipPos(p + 1) {
			count++
		}
		if count == 0 {
			continue
		}
		out = append(out, SummaryElement{Name: "match", Value: s.Text(s.Terms[i]), Weight: float64(count)})
	}
	return out, nil
}

// ───────────────────────────────────────────────────────────────────────────
// forwardindex: reconstruct a readable text window from the forward index.
// ───────────────────────────────────────────────────────────────────────────

// ForwardIndexSummarizer renders the terms at [Field.Start, Field.End) of a
// document as a single space-joined summary element.
type ForwardIndexSummarizer struct {
	Index *ForwardIndex
	Text  TermText
	Field IndexRange
	Name  string // summary element name, e.g. "content"
}

func (s *ForwardIndexSummarizer) Summarize(doc DocumentNumber) ([]SummaryElement, error) {
	entries, err := s.Index.Get(doc)
	if err != nil {
		return nil, err
	}
	var words []string
	for _, e := range entries {
		if s.Field.Defined() && !s.Field.Contains(e.Pos) {
			continue
		}
		words = append(words, s.Text(e.Term))
	}
	if len(words) == 0 {
		return nil, nil
	}
	text := words[0]
	for _, w := range words[1:] {
		text += " " + w
	}
	return []SummaryElement{{Name: s.Name, Value: text, Weight: 1.0}}, nil
}

// ───────────────────────────────────────────────────────────────────────────
// accumulate-near: weight co-occurring terms near the query match, via the
// proximity-weighting context's best passage.
// ───────────────────────────────────────────────────────────────────────────

// AccumulateNearSummarizer renders the best-scoring passage (per
// ProximityWeightingContext.BestPassage) as a summary element, falling back
// to silence if the document has no scored occurrences.
type AccumulateNearSummarizer struct {
	Context *ProximityWeightingContext
	Index   *ForwardIndex
	Text    TermText
	Name    string
}

func (s *AccumulateNearSummarizer) Summarize(doc DocumentNumber) ([]SummaryElement, error) {
	passage, ok := s.Context.BestPassage()
	if !ok {
		return nil, nil
	}
	entries, err := s.Index.Get(doc)
	if err != nil {
		return nil, err
	}
	var words []string
	for _, e := range entries {
		if passage.Contains(e.Pos) {
			words = append(words, s.Text(e.Term))
		}
	}
	if len(words) == 0 {
		return nil, nil
	}
	text := words[0]
	for _, w := range words[1:] {
		text += " " + w
	}
	return []SummaryElement{{Name: s.Name, Value: text, Weight: float64(len(words))}}, nil
}

// ───────────────────────────────────────────────────────────────────────────
// accumulate-variable: surface stored attribute values directly.
// ───────────────────────────────────────────────────────────────────────────

// AccumulateVariableSummarizer emits one summary element per named
// attribute recorded for the document (e.g. author, date), each with a
// fixed weight.
type AccumulateVariableSummarizer struct {
	Attributes *AttributeStore
	Names      []string
}

func (s *AccumulateVariableSummarizer) Summarize(doc DocumentNumber) ([]SummaryElement, error) {
	var out []SummaryElement
	for _, name := range s.Names {
		value, ok, err := s.Attributes.Get(doc, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, SummaryElement{Name: name, Value: value, Weight: 1.0})
	}
	return out, nil
}

// ───────────────────────────────────────────────────────────────────────────
// structure-header: render the text spanned by a named structural field
// (e.g. "title").
// ───────────────────────────────────────────────────────────────────────────

// StructureHeaderSummarizer renders the first field of a named structure
// (typically "title") as a summary element.
type StructureHeaderSummarizer struct {
	Structures *StructureStore
	Index      *ForwardIndex
	Text       TermText
	Structure  string // structure name, e.g. "title"
	Name       string // summary element name
}

func (s *StructureHeaderSummarizer) Summarize(doc DocumentNumber) ([]SummaryElement, error) {
	fields, err := s.Structures.Get(doc, s.Structure)
	if err != nil || len(fields) == 0 {
		return nil, err
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Start < fields[j].Start })
	header := fields[0]

	entries, err := s.Index.Get(doc)
	if err != nil {
		return nil, err
	}
	var words []string
	for _, e := range entries {
		if header.Contains(e.Pos) {
			words = append(words, s.Text(e.Term))
		}
	}
	if len(words) == 0 {
		return nil, nil
	}
	text := words[0]
	for _, w := range words[1:] {
		text += " " + w
	}
	return []SummaryElement{{Name: s.Name, Value: text, Weight: 1.0}}, nil
}
