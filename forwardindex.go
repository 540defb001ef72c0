package engine

import (
	"encoding/binary"
	"math"
	"sort"
)

// ═══════════════════════════════════════════════════════════════════════════════
// FORWARD INDEX, METADATA, ATTRIBUTES, STRUCTURES  (spec §3/§4.2)
// ═══════════════════════════════════════════════════════════════════════════════
// Where the inverted index answers "which documents contain term X", the
// forward index answers "what term sits at position P of document D" — used
// by summarizers to reconstruct readable text around a match. Metadata,
// attributes, and structure boundaries are the per-document side tables a
// query evaluator and a summarizer both need: metadata feeds
// MetadataRangeIterator and ranking inputs, attributes are display-only,
// structures bound sentence/title/paragraph scope for the proximity
// weighting context (proximity.go).
//
// All four share one KVStore, namespaced by a one-byte key prefix, the same
// flat-keyspace convention posting.go uses for posting blocks.
// ═══════════════════════════════════════════════════════════════════════════════

const (
	forwardKeyPrefix   = 'F'
	metadataKeyPrefix  = 'M'
	attributeKeyPrefix = 'A'
	structureKeyPrefix = 'S'
)

func docKey(prefix byte, doc DocumentNumber, name string) []byte {
	key := []byte{prefix}
	key = binary.BigEndian.AppendUint32(key, uint32(doc))
	return append(key, []byte(name)...)
}

func docPrefix(prefix byte, doc DocumentNumber) []byte {
	key := []byte{prefix}
	return binary.BigEndian.AppendUint32(key, uint32(doc))
}

// ForwardIndex stores per-document (position -> TermNumber) entries.
type ForwardIndex struct {
	store KVStore
}

// NewForwardIndex wraps a KVStore as a forward index.
func NewForwardIndex(store KVStore) *ForwardIndex {
	return &ForwardIndex{store: store}
}

// Put stores doc's forward-index entries (positions need not be sorted; they
// are sorted before encoding).
func (f *ForwardIndex) Put(doc DocumentNumber, entries []ForwardIndexEntry) error {
	sorted := append([]ForwardIndexEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Pos < sorted[j].Pos })
	var buf []byte
	var prevPos Position
	for _, e := range sorted {
		buf = putUvarint(buf, uint64(e.Pos-prevPos))
		buf = putUvarint(buf, uint64(e.Term))
		prevPos = e.Pos
	}
	b := f.store.Batch()
	if err := b.Set(docKey(forwardKeyPrefix, doc, ""), buf); err != nil {
		return err
	}
	return b.Commit()
}

// Get returns doc's forward-index entries in ascending position order.
func (f *ForwardIndex) Get(doc DocumentNumber) ([]ForwardIndexEntry, error) {
	buf, err := f.store.Get(docKey(forwardKeyPrefix, doc, ""))
	if err != nil || buf == nil {
		return nil, err
	}
	var out []ForwardIndexEntry
	var pos Position
	for off := 0; off < len(buf); {
		delta, n, ok := getUvarint(buf[off:])
		if !ok {
			return nil, newInvariantError("forward index", "truncated position delta")
		}
		off += n
		pos += Position(delta)
		term, n, ok := getUvarint(buf[off:])
		if !ok {
			return nil, newInvariantError("forward index", "truncated term id")
		}
		off += n
		out = append(out, ForwardIndexEntry{Pos: pos, Term: TermNumber(term)})
	}
	return out, nil
}

// TermAt returns the term at exactly pos, or false if none is recorded
// there. It decodes doc's whole entry list and binary-searches it.
func (f *ForwardIndex) TermAt(doc DocumentNumber, pos Position) (TermNumber, bool, error) {
	entries, err := f.Get(doc)
	if err != nil {
		return 0, false, err
	}
	i := sort.Search(len(entries), func(i int) bool { return entries[i].Pos >= pos })
	if i < len(entries) && entries[i].Pos == pos {
		return entries[i].Term, true, nil
	}
	return 0, false, nil
}

// MetadataStore stores per-document named scalar values.
type MetadataStore struct {
	store KVStore
}

// NewMetadataStore wraps a KVStore as a metadata store.
func NewMetadataStore(store KVStore) *MetadataStore {
	return &MetadataStore{store: store}
}

// Set assigns doc's value for name.
func (m *MetadataStore) Set(doc DocumentNumber, name string, value float64) error {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, math.Float64bits(value))
	b := m.store.Batch()
	if err := b.Set(docKey(metadataKeyPrefix, doc, name), buf); err != nil {
		return err
	}
	return b.Commit()
}

// Get returns doc's value for name.
func (m *MetadataStore) Get(doc DocumentNumber, name string) (float64, bool, error) {
	buf, err := m.store.Get(docKey(metadataKeyPrefix, doc, name))
	if err != nil || buf == nil {
		return 0, false, err
	}
	if len(buf) != 8 {
		return 0, false, newInvariantError("metadata", "malformed value")
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf)), true, nil
}

// Lookup returns a closure suitable for NewMetadataRangeIterator, reading
// name from this store.
func (m *MetadataStore) Lookup(name string) func(DocumentNumber) (float64, bool) {
	return func(doc DocumentNumber) (float64, bool) {
		v, ok, err := m.Get(doc, name)
		if err != nil {
			return 0, false
		}
		return v, ok
	}
}

// AttributeStore stores per-document named display strings.
type AttributeStore struct {
	store KVStore
}

// NewAttributeStore wraps a KVStore as an attribute store.
func NewAttributeStore(store KVStore) *AttributeStore {
	return &AttributeStore{store: store}
}

func (a *AttributeStore) Set(doc DocumentNumber, name, value string) error {
	b := a.store.Batch()
	if err := b.Set(docKey(attributeKeyPrefix, doc, name), []byte(value)); err != nil {
		return err
	}
	return b.Commit()
}

func (a *AttributeStore) Get(doc DocumentNumber, name string) (string, bool, error) {
	buf, err := a.store.Get(docKey(attributeKeyPrefix, doc, name))
	if err != nil || buf == nil {
		return "", false, err
	}
	return string(buf), true, nil
}

// StructureStore stores per-document named lists of boundary fields (one
// Structure per name), encoded as a flat varint list of (start,end) deltas.
type StructureStore struct {
	store KVStore
}

// NewStructureStore wraps a KVStore as a structure store.
func NewStructureStore(store KVStore) *StructureStore {
	return &StructureStore{store: store}
}

func (s *StructureStore) Set(doc DocumentNumber, name string, fields []IndexRange) error {
	var buf []byte
	var prevEnd Position
	for _, f := range fields {
		buf = putUvarint(buf, uint64(f.Start-prevEnd))
		buf = putUvarint(buf, uint64(f.End-f.Start))
		prevEnd = f.End
	}
	b := s.store.Batch()
	if err := b.Set(docKey(structureKeyPrefix, doc, name), buf); err != nil {
		return err
	}
	return b.Commit()
}

func (s *StructureStore) Get(doc DocumentNumber, name string) ([]IndexRange, error) {
	buf, err := s.store.Get(docKey(structureKeyPrefix, doc, name))
	if err != nil || buf == nil {
		return nil, err
	}
	var out []IndexRange
	var prevEnd Position
	for off := 0; off < len(buf); {
		startDelta, n, ok := getUvarint(buf[off:])
		if !ok {
			return nil, newInvariantError("structure store", "truncated start delta")
		}
		off += n
		width, n, ok := getUvarint(buf[off:])
		if !ok {
			return nil, newInvariantError("structure store", "truncated width")
		}
		off += n
		start := prevEnd + Position(startDelta)
		end := start + Position(width)
		out = append(out, IndexRange{Start: start, End: end})
		prevEnd = end
	}
	return out, nil
}

// DeleteDocument removes every forward-index, metadata, attribute, and
// structure entry recorded for doc, used when a document is removed from
// the shard.
func DeleteDocument(store KVStore, doc DocumentNumber) error {
	b := store.Batch()
	for _, prefix := range []byte{forwardKeyPrefix, metadataKeyPrefix, attributeKeyPrefix, structureKeyPrefix} {
		start := docPrefix(prefix, doc)
		end := prefixUpperBound(start)
		var keys [][]byte
		if err := store.Scan(start, end, func(key, value []byte) bool {
			keys = append(keys, append([]byte(nil), key...))
			return true
		}); err != nil {
			b.Discard()
			return err
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				b.Discard()
				return err
			}
		}
	}
	return b.Commit()
}
