package engine

import (
	"log/slog"
	"sort"
	"sync"
)

// ═══════════════════════════════════════════════════════════════════════════════
// WRITE-PATH STORAGE TRANSACTION  (spec §5)
// ═══════════════════════════════════════════════════════════════════════════════
// A single storage transaction is created on one thread and executes
// serially; StorageHandle enforces that with a plain mutex standing in for
// the original's exclusive transaction lock. Documents are staged in memory
// — terms accumulate per-document postings the way the teacher's
// SkipList-per-term index accumulates insertions — and only materialized
// into posting blocks, forward-index entries, and a statistics message on
// Commit. This mirrors the original's "build the delta, then flush it"
// transaction shape, generalized from the teacher's single in-memory
// SkipList structure into a KVStore-backed batch plus a StatisticsBuilder
// side effect.
// ═══════════════════════════════════════════════════════════════════════════════

// StorageHandle owns the shared state a write transaction commits into: the
// symbol tables, the underlying KV store, and the statistics builder that
// accumulates df deltas across the transaction's documents.
type StorageHandle struct {
	commitMu sync.Mutex // one writer at a time, matching the single-writer model

	store  KVStore
	docs   *DocTable
	types  *TermTypeTable
	values *TermValueTable
	stats  *StatisticsBuilder
	log    *slog.Logger
}

// NewStorageHandle wires together the tables and store a write transaction
// commits against.
func NewStorageHandle(store KVStore, docs *DocTable, types *TermTypeTable, values *TermValueTable) *StorageHandle {
	return &StorageHandle{
		store:  store,
		docs:   docs,
		types:  types,
		values: values,
		stats:  NewStatisticsBuilder(types),
		log:    slog.Default(),
	}
}

// FetchStatisticsMessage flushes every df/document-count change accumulated
// across this handle's committed transactions into a single statistics
// message, resetting the builder, the way a caller publishes accumulated
// changes to a StatisticsLog between indexing runs.
func (h *StorageHandle) FetchStatisticsMessage() []byte {
	return h.stats.FetchMessage()
}

// pendingDoc is one document's staged content within a transaction.
type pendingDoc struct {
	doc        DocumentNumber
	terms      map[TermNumber][]Position // term occurrences, staged unsorted
	forward    []ForwardIndexEntry
	metadata   []MetadataElement
	attributes []Attribute
	structures map[string][]IndexRange
}

// termOccurrence names a term by its original (type, value) pair, so a
// committed transaction can report df deltas without reversing TermNumbers
// back through the symbol tables.
type termOccurrence struct {
	termType string
	value    string
}

// StorageTransaction stages document insertions before a single Commit call
// writes them out.
type StorageTransaction struct {
	handle  *StorageHandle
	pending []*pendingDoc
	termDF  map[TermNumber]int            // new-document count per term, folded into df deltas on commit
	names   map[TermNumber]termOccurrence // (type, value) each staged TermNumber names
}

// NewTransaction begins staging a new transaction against handle.
func (h *StorageHandle) NewTransaction() *StorageTransaction {
	return &StorageTransaction{
		handle: h,
		termDF: make(map[TermNumber]int),
		names:  make(map[TermNumber]termOccurrence),
	}
}

// InsertDocument stages docID for insertion, interning it if new, and
// returns a handle used to add its content.
func (tx *StorageTransaction) InsertDocument(docID string) (*pendingDoc, error) {
	no, err := tx.handle.docs.Intern(docID)
	if err != nil {
		return nil, err
	}
	pd := &pendingDoc{doc: no, terms: make(map[TermNumber][]Position), structures: make(map[string][]IndexRange)}
	tx.pending = append(tx.pending, pd)
	return pd, nil
}

// AddTerm stages one term occurrence for the document, interning the
// (termType, value) pair.
func (tx *StorageTransaction) AddTerm(pd *pendingDoc, termType, value string, pos Position) error {
	typeID, err := tx.handle.types.Intern(termType)
	if err != nil {
		return err
	}
	term, err := tx.handle.values.Intern(typeID, value)
	if err != nil {
		return err
	}
	if _, seen := pd.terms[term]; !seen {
		tx.termDF[term]++
		tx.names[term] = termOccurrence{termType: termType, value: value}
	}
	pd.terms[term] = append(pd.terms[term], pos)
	pd.forward = append(pd.forward, ForwardIndexEntry{Pos: pos, Term: term})
	return nil
}

// SetMetadata stages a metadata element for the document.
func (tx *StorageTransaction) SetMetadata(pd *pendingDoc, name string, value float64) {
	pd.metadata = append(pd.metadata, MetadataElement{Name: name, Value: value})
}

// SetAttribute stages an attribute for the document.
func (tx *StorageTransaction) SetAttribute(pd *pendingDoc, name, value string) {
	pd.attributes = append(pd.attributes, Attribute{Name: name, Value: value})
}

// AddStructure stages a named structural range for the document (e.g. a
// "title" or "sentence" field span).
func (tx *StorageTransaction) AddStructure(pd *pendingDoc, name string, r IndexRange) {
	pd.structures[name] = append(pd.structures[name], r)
}

// Commit merges the staged documents' postings with whatever already exists
// on disk for each touched term and writes them as a single KVStore batch,
// then writes each document's side tables as separate small commits, and
// folds the transaction's df deltas and document-count change
// into the shared StatisticsBuilder.
func (tx *StorageTransaction) Commit() error {
	tx.handle.commitMu.Lock()
	defer tx.handle.commitMu.Unlock()

	postings := make(map[TermNumber][]PostingEntry)
	for _, pd := range tx.pending {
		for term, positions := range pd.terms {
			sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
			postings[term] = append(postings[term], PostingEntry{Doc: pd.doc, Positions: positions})
		}
	}

	batch := tx.handle.store.Batch()
	for term, newEntries := range postings {
		merged, err := tx.mergePostings(term, newEntries)
		if err != nil {
			return err
		}
		sort.Slice(merged, func(i, j int) bool { return merged[i].Doc < merged[j].Doc })
		key := PostingBlockKey(term, merged[0].Doc)
		if err := batch.Set(key, EncodePostingBlock(merged)); err != nil {
			return err
		}
	}
	if err := batch.Commit(); err != nil {
		tx.handle.stats.Rollback()
		return newExternalError("writetxn.Commit postings", err)
	}

	// Side tables each own their single-key-per-call commit contract
	// (forwardindex.go); they are flushed as separate small commits after
	// the posting batch, still inside this transaction's exclusive lock.
	fwd := NewForwardIndex(tx.handle.store)
	meta := NewMetadataStore(tx.handle.store)
	attrs := NewAttributeStore(tx.handle.store)
	structs := NewStructureStore(tx.handle.store)
	for _, pd := range tx.pending {
		if len(pd.forward) > 0 {
			if err := fwd.Put(pd.doc, pd.forward); err != nil {
				return newExternalError("writetxn.Commit forward index", err)
			}
		}
		for _, m := range pd.metadata {
			if err := meta.Set(pd.doc, m.Name, m.Value); err != nil {
				return newExternalError("writetxn.Commit metadata", err)
			}
		}
		for _, a := range pd.attributes {
			if err := attrs.Set(pd.doc, a.Name, a.Value); err != nil {
				return newExternalError("writetxn.Commit attributes", err)
			}
		}
		for name, ranges := range pd.structures {
			if err := structs.Set(pd.doc, name, ranges); err != nil {
				return newExternalError("writetxn.Commit structures", err)
			}
		}
	}

	for term, count := range tx.termDF {
		name := tx.names[term]
		if err := tx.handle.stats.AddDfChange(name.termType, name.value, int64(count)); err != nil {
			return err
		}
	}
	tx.handle.stats.AddDocumentCountChange(int64(len(tx.pending)))

	tx.handle.log.Info("committed storage transaction",
		slog.Int("documents", len(tx.pending)), slog.Int("terms", len(postings)))
	return nil
}

// mergePostings combines newEntries for term with whatever posting blocks
// already exist in the store, since a term's occurrences can span many
// transactions over the term's lifetime.
func (tx *StorageTransaction) mergePostings(term TermNumber, newEntries []PostingEntry) ([]PostingEntry, error) {
	it, err := NewPostingLeafIterator(tx.handle.store, term)
	if err != nil {
		return nil, err
	}
	byDoc := make(map[DocumentNumber][]Position, len(newEntries))
	var order []DocumentNumber
	for doc := it.SkipDoc(1); doc != 0; doc = it.SkipDoc(doc + 1) {
		var positions []Position
		for pos := it.SkipPos(1); pos != 0; pos = it.SkipPos(pos + 1) {
			positions = append(positions, pos)
		}
		byDoc[doc] = positions
		order = append(order, doc)
	}
	for _, e := range newEntries {
		if _, seen := byDoc[e.Doc]; !seen {
			order = append(order, e.Doc)
		}
		byDoc[e.Doc] = append(byDoc[e.Doc], e.Positions...)
	}
	merged := make([]PostingEntry, 0, len(order))
	for _, doc := range order {
		positions := byDoc[doc]
		sort.Slice(positions, func(i, j int) bool { return positions[i] < positions[j] })
		merged = append(merged, PostingEntry{Doc: doc, Positions: positions})
	}
	return merged, nil
}
