package engine

import (
	"sync"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SYMBOL TABLES  (spec §4.5)
// ═══════════════════════════════════════════════════════════════════════════════
// Two symbol tables sit on top of CompactTrie:
//
//   - TermTypeTable maps a small set of type names ("word", "stem", ...) to
//     small dense uint32 type ids, handed out from 1 upward.
//   - TermValueTable maps a composite key — the type id as a varint followed
//     by the term's raw bytes — to a TermNumber. Building the key this way
//     (rather than one trie per type) is exactly what statisticsBuilder.cpp
//     does before emitting terms in lexicographic order: it keeps all terms
//     in one compact trie and groups by type via the key prefix.
//
// Both tables hand out ids by bumping a counter; they never reuse ids that
// have been assigned, matching the original's monotonic Index-space model.
// ═══════════════════════════════════════════════════════════════════════════════

// TermTypeTable interns term type names ("word", "stem", "entity", ...) as
// small dense ids.
type TermTypeTable struct {
	mu      sync.RWMutex
	trie    *CompactTrie
	byID    []string
	nextID  uint32
}

// NewTermTypeTable constructs an empty table. Id 0 is reserved (unassigned).
func NewTermTypeTable() *TermTypeTable {
	return &TermTypeTable{trie: NewCompactTrie(), byID: []string{""}, nextID: 1}
}

// Intern returns the id for typeName, assigning a fresh one if it has not
// been seen before.
func (t *TermTypeTable) Intern(typeName string) (uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if id, ok := t.trie.Get([]byte(typeName)); ok {
		return id, nil
	}
	id := t.nextID
	if err := t.trie.Set([]byte(typeName), id); err != nil {
		return 0, err
	}
	t.byID = append(t.byID, typeName)
	t.nextID++
	return id, nil
}

// Lookup returns the id for typeName without assigning one.
func (t *TermTypeTable) Lookup(typeName string) (uint32, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.trie.Get([]byte(typeName))
}

// Name returns the type name for an id, or "" if unassigned.
func (t *TermTypeTable) Name(id uint32) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(id) >= len(t.byID) {
		return ""
	}
	return t.byID[id]
}

// termValueKey builds the composite (type-id-varint ‖ value-bytes) key used
// by TermValueTable, grounded on statisticsBuilder.cpp's type+value
// composite trie key.
func termValueKey(typeID uint32, value string) []byte {
	key := putUvarint(nil, uint64(typeID))
	return append(key, []byte(value)...)
}

// TermValueTable interns (type id, value) pairs as TermNumbers.
type TermValueTable struct {
	mu     sync.RWMutex
	trie   *CompactTrie
	nextID uint32
}

// NewTermValueTable constructs an empty table. TermNumber 0 is reserved.
func NewTermValueTable() *TermValueTable {
	return &TermValueTable{trie: NewCompactTrie(), nextID: 1}
}

// Intern returns the TermNumber for (typeID, value), assigning a fresh one
// if it has not been seen before.
func (t *TermValueTable) Intern(typeID uint32, value string) (TermNumber, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := termValueKey(typeID, value)
	if id, ok := t.trie.Get(key); ok {
		return TermNumber(id), nil
	}
	id := t.nextID
	if err := t.trie.Set(key, id); err != nil {
		return 0, err
	}
	t.nextID++
	return TermNumber(id), nil
}

// Lookup returns the TermNumber for (typeID, value) without assigning one.
func (t *TermValueTable) Lookup(typeID uint32, value string) (TermNumber, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	id, ok := t.trie.Get(termValueKey(typeID, value))
	return TermNumber(id), ok
}

// VisitType enumerates every (value, TermNumber) pair interned under typeID,
// in ascending lexicographic order of value — the same ordering
// statisticsBuilder.cpp relies on when it emits df changes grouped by type.
func (t *TermValueTable) VisitType(typeID uint32, fn func(value string, term TermNumber) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	prefix := putUvarint(nil, uint64(typeID))
	t.trie.VisitPrefix(prefix, func(key []byte, val uint32) bool {
		return fn(string(key[len(prefix):]), TermNumber(val))
	})
}

// Len reports the number of distinct (type, value) pairs interned.
func (t *TermValueTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.trie.Len()
}

// DocTable maps external document identifiers (arbitrary strings, e.g. a
// URL or a path) to dense DocumentNumbers, the same role strus's storage
// layer gives its docid symbol table.
type DocTable struct {
	mu     sync.RWMutex
	trie   *CompactTrie
	byNo   []string
	nextNo uint32
}

// NewDocTable constructs an empty table. DocumentNumber 0 is reserved.
func NewDocTable() *DocTable {
	return &DocTable{trie: NewCompactTrie(), byNo: []string{""}, nextNo: 1}
}

// Intern returns the DocumentNumber for docID, assigning a fresh one if new.
func (d *DocTable) Intern(docID string) (DocumentNumber, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if no, ok := d.trie.Get([]byte(docID)); ok {
		return DocumentNumber(no), nil
	}
	no := d.nextNo
	if err := d.trie.Set([]byte(docID), no); err != nil {
		return 0, err
	}
	d.byNo = append(d.byNo, docID)
	d.nextNo++
	return DocumentNumber(no), nil
}

// Lookup returns the DocumentNumber for docID without assigning one.
func (d *DocTable) Lookup(docID string) (DocumentNumber, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	no, ok := d.trie.Get([]byte(docID))
	return DocumentNumber(no), ok
}

// ExternalID returns the external document identifier for a DocumentNumber.
func (d *DocTable) ExternalID(no DocumentNumber) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if int(no) >= len(d.byNo) || no == 0 {
		return "", false
	}
	return d.byNo[no], true
}

// Len reports the number of distinct documents interned.
func (d *DocTable) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.trie.Len()
}
