package engine

import "sort"

// ═══════════════════════════════════════════════════════════════════════════════
// STATISTICS MESSAGE BUILDER / VIEWER  (spec §4.6)
// ═══════════════════════════════════════════════════════════════════════════════
// A statistics message is the unit shared between shards: a batch of
// document-frequency deltas, one per (term type, term value) pair that
// changed since the last message. Grounded on statisticsBuilder.cpp: deltas
// accumulate in a map keyed by the composite (type-id ‖ value) string (the
// same key shape symboltable.go's TermValueTable uses); on Fetch the keys
// are sorted, so terms emit in lexicographic order and adjacent keys can
// share a common byte prefix — encoded once per run instead of once per term.
//
// Per SPEC_FULL.md's resolution of spec.md §9's second Open Question, this
// implements only the "statistics message" layout; the older C++
// implementation's separate "peer message" bit-layout has no counterpart
// here.
// ═══════════════════════════════════════════════════════════════════════════════

// StatisticsBuilder accumulates df changes and emits them as a compact
// binary message. It is not safe for concurrent use; callers serialize
// access the way the write-path transaction already does (writetxn.go).
type StatisticsBuilder struct {
	typeTable *TermTypeTable
	deltas    map[string]int64 // keyed by termValueKey(typeID, value)
	order     []string         // insertion order of keys; cleared by Rollback
	nofDocs   int64            // net change in corpus document count this message carries
}

// NewStatisticsBuilder constructs an empty builder against typeTable (shared
// with the storage the deltas originated from, so type names resolve to the
// same ids on both ends).
func NewStatisticsBuilder(typeTable *TermTypeTable) *StatisticsBuilder {
	return &StatisticsBuilder{typeTable: typeTable, deltas: make(map[string]int64)}
}

// AddDfChange records a delta for (termType, termValue), summing with any
// previously staged delta for the same pair, mirroring
// StatisticsBuilder::addDfChange's accumulate-in-trie behavior.
func (b *StatisticsBuilder) AddDfChange(termType, termValue string, delta int64) error {
	typeID, err := b.typeTable.Intern(termType)
	if err != nil {
		return err
	}
	key := string(termValueKey(typeID, termValue))
	if _, ok := b.deltas[key]; !ok {
		b.order = append(b.order, key)
	}
	b.deltas[key] += delta
	return nil
}

// AddDocumentCountChange records a change in the shard's total document
// count, carried alongside term deltas so idf computation elsewhere in the
// corpus stays consistent without a separate message type.
func (b *StatisticsBuilder) AddDocumentCountChange(delta int64) {
	b.nofDocs += delta
}

// Rollback discards all staged changes without emitting a message.
func (b *StatisticsBuilder) Rollback() {
	b.deltas = make(map[string]int64)
	b.order = nil
	b.nofDocs = 0
}

// decodedDelta is a staged (type, value, delta) triple in encode order.
type decodedDelta struct {
	typeID uint32
	value  string
	delta  int64
}

// FetchMessage encodes every staged change into a message and clears the
// builder's state, mirroring fetchMessage's "emit and reset" contract.
func (b *StatisticsBuilder) FetchMessage() []byte {
	if len(b.deltas) == 0 && b.nofDocs == 0 {
		return nil
	}
	entries := make([]decodedDelta, 0, len(b.deltas))
	for key, delta := range b.deltas {
		typeID, value := splitTermValueKey([]byte(key))
		entries = append(entries, decodedDelta{typeID: typeID, value: value, delta: delta})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].typeID != entries[j].typeID {
			return entries[i].typeID < entries[j].typeID
		}
		return entries[i].value < entries[j].value
	})

	msg := putVarint(nil, b.nofDocs)
	msg = putUvarint(msg, uint64(len(entries)))
	var prevTypeID uint32
	var prevValue string
	for i, e := range entries {
		sameType := i > 0 && e.typeID == prevTypeID
		if sameType {
			msg = append(msg, 1)
		} else {
			msg = append(msg, 0)
			msg = putUvarint(msg, uint64(e.typeID))
		}
		common := commonPrefixLen(prevValue, e.value)
		if !sameType {
			common = 0 // a new type starts a fresh prefix-compression chain
		}
		msg = putUvarint(msg, uint64(common))
		suffix := e.value[common:]
		msg = putUvarint(msg, uint64(len(suffix)))
		msg = append(msg, suffix...)
		msg = putVarint(msg, e.delta)

		prevTypeID = e.typeID
		prevValue = e.value
	}

	b.Rollback()
	return msg
}

func commonPrefixLen(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// splitTermValueKey undoes termValueKey: typeID varint followed by raw value
// bytes.
func splitTermValueKey(key []byte) (uint32, string) {
	typeID, n, ok := getUvarint(key)
	if !ok {
		return 0, ""
	}
	return uint32(typeID), string(key[n:])
}

// StatisticsViewer decodes a message produced by StatisticsBuilder.FetchMessage.
type StatisticsViewer struct {
	typeTable *TermTypeTable
}

// NewStatisticsViewer constructs a viewer resolving type ids against
// typeTable.
func NewStatisticsViewer(typeTable *TermTypeTable) *StatisticsViewer {
	return &StatisticsViewer{typeTable: typeTable}
}

// DecodedMessage is a fully parsed statistics message.
type DecodedMessage struct {
	DocumentCountChange int64
	Changes             []DfDelta
}

// Decode parses msg into a DecodedMessage.
func (v *StatisticsViewer) Decode(msg []byte) (*DecodedMessage, error) {
	off := 0
	nofDocs, n, ok := getVarint(msg[off:])
	if !ok {
		return nil, newInvariantError("statistics message", "truncated document count delta")
	}
	off += n
	count, n, ok := getUvarint(msg[off:])
	if !ok {
		return nil, newInvariantError("statistics message", "truncated entry count")
	}
	off += n

	out := &DecodedMessage{DocumentCountChange: nofDocs}
	var typeID uint32
	var value string
	for i := uint64(0); i < count; i++ {
		if off >= len(msg) {
			return nil, newInvariantError("statistics message", "truncated entry")
		}
		sameType := msg[off] == 1
		off++
		if !sameType {
			tv, n, ok := getUvarint(msg[off:])
			if !ok {
				return nil, newInvariantError("statistics message", "truncated type id")
			}
			off += n
			typeID = uint32(tv)
			value = ""
		}
		common, n, ok := getUvarint(msg[off:])
		if !ok {
			return nil, newInvariantError("statistics message", "truncated common prefix length")
		}
		off += n
		suffixLen, n, ok := getUvarint(msg[off:])
		if !ok {
			return nil, newInvariantError("statistics message", "truncated suffix length")
		}
		off += n
		if off+int(suffixLen) > len(msg) {
			return nil, newInvariantError("statistics message", "truncated suffix bytes")
		}
		suffix := string(msg[off : off+int(suffixLen)])
		off += int(suffixLen)
		if int(common) > len(value) {
			return nil, newInvariantError("statistics message", "common prefix longer than previous value")
		}
		value = value[:common] + suffix

		delta, n, ok := getVarint(msg[off:])
		if !ok {
			return nil, newInvariantError("statistics message", "truncated delta")
		}
		off += n

		out.Changes = append(out.Changes, DfDelta{
			TermType:  v.typeTable.Name(typeID),
			TermValue: value,
			Delta:     delta,
		})
	}
	return out, nil
}
