package engine

import (
	"bytes"
	"log/slog"
	"sort"
	"sync"

	"github.com/dgraph-io/badger/v4"
)

// ═══════════════════════════════════════════════════════════════════════════════
// ORDERED KV STORE  (spec §4.5/§6 external collaborator)
// ═══════════════════════════════════════════════════════════════════════════════
// Posting blocks, forward-index entries, and structure boundaries are all
// keyed so that a single ordered key-value store can hold the whole shard:
// the engine never assumes a particular storage engine, only that it can
// get/iterate-from-key/batch-write with snapshot isolation. Grounded on
// nicktill-tinyobs's badger-backed Storage wrapper and Charizard13-badger's
// usage of the same library: badger/v4 gives exactly this contract (MVCC
// snapshots, a single writer, ordered iteration), so it is the concrete
// implementation wired in here rather than a bespoke B-tree.
// ═══════════════════════════════════════════════════════════════════════════════

// KVStore is the ordered key-value contract the engine's storage layer
// needs. Keys sort by byte order; iteration is ascending.
type KVStore interface {
	Get(key []byte) ([]byte, error)
	// Scan calls fn for every key in [start, end) in ascending order.
	// A nil end means "to the end of the keyspace". Scan stops early if fn
	// returns false.
	Scan(start, end []byte, fn func(key, value []byte) bool) error
	// Batch opens a write batch; the caller must call Commit or Discard.
	Batch() KVBatch
	Close() error
}

// KVBatch accumulates writes for atomic commit, matching badger's
// transaction model (the single-writer contract spec.md §5 assumes for
// storage transactions).
type KVBatch interface {
	Set(key, value []byte) error
	Delete(key []byte) error
	Commit() error
	Discard()
}

// ─── badger-backed implementation ──────────────────────────────────────────

// BadgerKVStore implements KVStore on top of badger/v4.
type BadgerKVStore struct {
	db  *badger.DB
	log *slog.Logger
}

// BadgerConfig configures the backing badger database, mirroring the small
// literal Config structs the teacher uses elsewhere (BM25Parameters,
// AnalyzerConfig) and the Config/Path/InMemory shape of
// nicktill-tinyobs's badger Storage wrapper.
type BadgerConfig struct {
	Path       string
	InMemory   bool
	Logger     *slog.Logger
}

// DefaultBadgerConfig returns an in-memory store suitable for tests.
func DefaultBadgerConfig() BadgerConfig {
	return BadgerConfig{InMemory: true}
}

// OpenBadgerKVStore opens (or creates) a badger database per cfg.
func OpenBadgerKVStore(cfg BadgerConfig) (*BadgerKVStore, error) {
	opts := badger.DefaultOptions(cfg.Path)
	opts = opts.WithInMemory(cfg.InMemory)
	opts = opts.WithLogger(nil) // badger's own logger is noisy; we log at our boundary instead
	db, err := badger.Open(opts)
	if err != nil {
		return nil, newExternalError("badger.Open", err)
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Info("opened kv store", slog.String("path", cfg.Path), slog.Bool("in_memory", cfg.InMemory))
	return &BadgerKVStore{db: db, log: log}, nil
}

func (s *BadgerKVStore) Get(key []byte) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, newExternalError("badger.Get", err)
	}
	return out, nil
}

func (s *BadgerKVStore) Scan(start, end []byte, fn func(key, value []byte) bool) error {
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(start); it.Valid(); it.Next() {
			item := it.Item()
			k := item.KeyCopy(nil)
			if end != nil && bytes.Compare(k, end) >= 0 {
				break
			}
			var cont bool
			verr := item.Value(func(v []byte) error {
				cont = fn(k, v)
				return nil
			})
			if verr != nil {
				return verr
			}
			if !cont {
				break
			}
		}
		return nil
	})
	if err != nil {
		return newExternalError("badger.Scan", err)
	}
	return nil
}

func (s *BadgerKVStore) Batch() KVBatch {
	return &badgerBatch{txn: s.db.NewTransaction(true)}
}

func (s *BadgerKVStore) Close() error {
	if err := s.db.Close(); err != nil {
		return newExternalError("badger.Close", err)
	}
	return nil
}

type badgerBatch struct {
	txn *badger.Txn
}

func (b *badgerBatch) Set(key, value []byte) error {
	if err := b.txn.Set(key, value); err != nil {
		return newExternalError("badger.Set", err)
	}
	return nil
}

func (b *badgerBatch) Delete(key []byte) error {
	if err := b.txn.Delete(key); err != nil {
		return newExternalError("badger.Delete", err)
	}
	return nil
}

func (b *badgerBatch) Commit() error {
	if err := b.txn.Commit(); err != nil {
		return newExternalError("badger.Commit", err)
	}
	return nil
}

func (b *badgerBatch) Discard() {
	b.txn.Discard()
}

// ─── in-memory implementation, used by tests ───────────────────────────────

// MemKVStore is a sorted-slice-backed KVStore used where a real badger
// database would be overkill, such as unit tests.
type MemKVStore struct {
	mu   sync.RWMutex
	keys [][]byte
	vals [][]byte
}

// NewMemKVStore constructs an empty in-memory store.
func NewMemKVStore() *MemKVStore {
	return &MemKVStore{}
}

func (m *MemKVStore) find(key []byte) (int, bool) {
	i := sort.Search(len(m.keys), func(i int) bool { return bytes.Compare(m.keys[i], key) >= 0 })
	return i, i < len(m.keys) && bytes.Equal(m.keys[i], key)
}

func (m *MemKVStore) Get(key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i, ok := m.find(key); ok {
		return append([]byte(nil), m.vals[i]...), nil
	}
	return nil, nil
}

func (m *MemKVStore) Scan(start, end []byte, fn func(key, value []byte) bool) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, _ := m.find(start)
	for ; i < len(m.keys); i++ {
		if end != nil && bytes.Compare(m.keys[i], end) >= 0 {
			break
		}
		if !fn(m.keys[i], m.vals[i]) {
			break
		}
	}
	return nil
}

func (m *MemKVStore) Batch() KVBatch {
	return &memBatch{store: m}
}

func (m *MemKVStore) Close() error { return nil }

func (m *MemKVStore) setLocked(key, value []byte) {
	i, ok := m.find(key)
	if ok {
		m.vals[i] = append([]byte(nil), value...)
		return
	}
	m.keys = append(m.keys, nil)
	m.vals = append(m.vals, nil)
	copy(m.keys[i+1:], m.keys[i:])
	copy(m.vals[i+1:], m.vals[i:])
	m.keys[i] = append([]byte(nil), key...)
	m.vals[i] = append([]byte(nil), value...)
}

func (m *MemKVStore) deleteLocked(key []byte) {
	i, ok := m.find(key)
	if !ok {
		return
	}
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.vals = append(m.vals[:i], m.vals[i+1:]...)
}

type memOp struct {
	del   bool
	key   []byte
	value []byte
}

type memBatch struct {
	store *MemKVStore
	ops   []memOp
}

func (b *memBatch) Set(key, value []byte) error {
	b.ops = append(b.ops, memOp{key: key, value: value})
	return nil
}

func (b *memBatch) Delete(key []byte) error {
	b.ops = append(b.ops, memOp{del: true, key: key})
	return nil
}

func (b *memBatch) Commit() error {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()
	for _, op := range b.ops {
		if op.del {
			b.store.deleteLocked(op.key)
		} else {
			b.store.setLocked(op.key, op.value)
		}
	}
	b.ops = nil
	return nil
}

func (b *memBatch) Discard() {
	b.ops = nil
}
