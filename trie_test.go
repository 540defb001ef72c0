package engine

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompactTrieSetGet(t *testing.T) {
	tr := NewCompactTrie()
	cases := map[string]uint32{
		"a":        1,
		"ab":       2,
		"abc":      3,
		"b":        4,
		"bob":      5,
		"bobby":    6,
		"zzz":      7,
		"qux":      8,
		"quux":     9,
		"quuxquux": 10,
	}
	for k, v := range cases {
		require.NoError(t, tr.Set([]byte(k), v))
	}
	for k, v := range cases {
		got, ok := tr.Get([]byte(k))
		require.True(t, ok, "key %q", k)
		require.Equal(t, v, got, "key %q", k)
	}
	_, ok := tr.Get([]byte("nope"))
	require.False(t, ok)
}

func TestCompactTrieUpdateOverwrites(t *testing.T) {
	tr := NewCompactTrie()
	require.NoError(t, tr.Set([]byte("term"), 1))
	require.NoError(t, tr.Set([]byte("term"), 2))
	got, ok := tr.Get([]byte("term"))
	require.True(t, ok)
	require.Equal(t, uint32(2), got)
	require.Equal(t, 1, tr.Len())
}

func TestCompactTrieRejectsReservedBytes(t *testing.T) {
	tr := NewCompactTrie()
	require.Error(t, tr.Set([]byte{0x00, 'a'}, 1))
	require.Error(t, tr.Set([]byte{'a', 0xFF}, 1))
}

func TestCompactTrieNodeClassGrowth(t *testing.T) {
	// Force a single parent node through N1 -> N2 -> N4 -> N8 -> N16 -> N256
	// by giving it 20 distinct single-byte successors.
	tr := NewCompactTrie()
	var want []byte
	for c := byte('a'); c < byte('a'+20); c++ {
		want = append(want, c)
		require.NoError(t, tr.Set([]byte{c}, uint32(c)))
	}
	for _, c := range want {
		got, ok := tr.Get([]byte{c})
		require.True(t, ok)
		require.Equal(t, uint32(c), got)
	}
}

func TestCompactTrieVisitOrder(t *testing.T) {
	tr := NewCompactTrie()
	keys := []string{"ant", "ant", "bee", "bear", "be", "ape", "a"}
	for _, k := range keys {
		require.NoError(t, tr.Set([]byte(k), 1))
	}
	var seen []string
	tr.Visit(func(key []byte, val uint32) bool {
		seen = append(seen, string(key))
		return true
	})
	want := []string{"a", "ant", "ape", "be", "bear", "bee"}
	sort.Strings(want)
	require.Equal(t, want, seen)
}

func TestCompactTrieVisitPrefix(t *testing.T) {
	tr := NewCompactTrie()
	for _, k := range []string{"cat", "car", "cart", "dog"} {
		require.NoError(t, tr.Set([]byte(k), 1))
	}
	var seen []string
	tr.VisitPrefix([]byte("ca"), func(key []byte, val uint32) bool {
		seen = append(seen, string(key))
		return true
	})
	sort.Strings(seen)
	require.Equal(t, []string{"car", "cart", "cat"}, seen)
}

func TestCompactTrieVisitEarlyStop(t *testing.T) {
	tr := NewCompactTrie()
	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, tr.Set([]byte(k), 1))
	}
	count := 0
	tr.Visit(func(key []byte, val uint32) bool {
		count++
		return count < 2
	})
	require.Equal(t, 2, count)
}
