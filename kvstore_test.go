package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemKVStoreGetSetScan(t *testing.T) {
	m := NewMemKVStore()
	b := m.Batch()
	require.NoError(t, b.Set([]byte("b"), []byte("2")))
	require.NoError(t, b.Set([]byte("a"), []byte("1")))
	require.NoError(t, b.Set([]byte("c"), []byte("3")))
	require.NoError(t, b.Commit())

	v, err := m.Get([]byte("b"))
	require.NoError(t, err)
	require.Equal(t, []byte("2"), v)

	v, err = m.Get([]byte("missing"))
	require.NoError(t, err)
	require.Nil(t, v)

	var keys []string
	require.NoError(t, m.Scan(nil, nil, func(key, value []byte) bool {
		keys = append(keys, string(key))
		return true
	}))
	require.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestMemKVStoreScanRangeAndEarlyStop(t *testing.T) {
	m := NewMemKVStore()
	b := m.Batch()
	for _, k := range []string{"a", "aa", "ab", "b", "ba", "c"} {
		require.NoError(t, b.Set([]byte(k), []byte(k)))
	}
	require.NoError(t, b.Commit())

	var keys []string
	require.NoError(t, m.Scan([]byte("a"), []byte("b"), func(key, value []byte) bool {
		keys = append(keys, string(key))
		return true
	}))
	require.Equal(t, []string{"a", "aa", "ab"}, keys)

	keys = nil
	require.NoError(t, m.Scan(nil, nil, func(key, value []byte) bool {
		keys = append(keys, string(key))
		return len(keys) < 2
	}))
	require.Equal(t, []string{"a", "aa"}, keys)
}

func TestMemKVStoreDelete(t *testing.T) {
	m := NewMemKVStore()
	b := m.Batch()
	require.NoError(t, b.Set([]byte("x"), []byte("1")))
	require.NoError(t, b.Commit())

	b = m.Batch()
	require.NoError(t, b.Delete([]byte("x")))
	require.NoError(t, b.Commit())

	v, err := m.Get([]byte("x"))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestMemKVStoreBatchDiscard(t *testing.T) {
	m := NewMemKVStore()
	b := m.Batch()
	require.NoError(t, b.Set([]byte("x"), []byte("1")))
	b.Discard()

	v, err := m.Get([]byte("x"))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestBadgerKVStoreInMemorySmoke(t *testing.T) {
	store, err := OpenBadgerKVStore(DefaultBadgerConfig())
	require.NoError(t, err)
	defer store.Close()

	b := store.Batch()
	require.NoError(t, b.Set([]byte("k1"), []byte("v1")))
	require.NoError(t, b.Commit())

	v, err := store.Get([]byte("k1"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), v)
}
