package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func samplePostings() []PostingEntry {
	return []PostingEntry{
		{Doc: 1, Positions: []Position{1, 5, 9}},
		{Doc: 3, Positions: []Position{2}},
		{Doc: 7, Positions: []Position{1, 2, 3, 100}},
		{Doc: 8, Positions: []Position{42}},
	}
}

func TestPostingBlockRoundTrip(t *testing.T) {
	entries := samplePostings()
	buf := EncodePostingBlock(entries)
	got, err := DecodePostingBlock(buf)
	require.NoError(t, err)
	require.Equal(t, entries, got)
}

func TestPostingBlockCheckpointsSpanLargeBlock(t *testing.T) {
	var entries []PostingEntry
	for i := 1; i <= 200; i++ {
		entries = append(entries, PostingEntry{Doc: DocumentNumber(i), Positions: []Position{Position(i)}})
	}
	buf := EncodePostingBlock(entries)
	blk, err := decodePostingBlock(buf)
	require.NoError(t, err)
	require.True(t, len(blk.checkpoints) >= 200/postingCheckpointInterval)

	cp := blk.firstCheckpointAtOrBefore(150)
	require.LessOrEqual(t, cp.doc, DocumentNumber(150))

	last, ok := blk.lastDoc()
	require.True(t, ok)
	require.Equal(t, DocumentNumber(200), last)

	got, err := DecodePostingBlock(buf)
	require.NoError(t, err)
	require.Equal(t, entries, got)
}

func TestPostingBlockKeyOrdering(t *testing.T) {
	k1 := PostingBlockKey(5, 1)
	k2 := PostingBlockKey(5, 100)
	k3 := PostingBlockKey(6, 1)
	require.Less(t, string(k1), string(k2))
	require.Less(t, string(k2), string(k3))
}

func TestPostingTermPrefixEndBoundsScan(t *testing.T) {
	store := NewMemKVStore()
	b := store.Batch()
	require.NoError(t, b.Set(PostingBlockKey(1, 1), []byte("a")))
	require.NoError(t, b.Set(PostingBlockKey(1, 50), []byte("b")))
	require.NoError(t, b.Set(PostingBlockKey(2, 1), []byte("c")))
	require.NoError(t, b.Commit())

	var got [][]byte
	err := store.Scan(PostingTermPrefix(1), PostingTermPrefixEnd(1), func(key, value []byte) bool {
		got = append(got, append([]byte(nil), value...))
		return true
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestDecodePostingBlockRejectsTruncated(t *testing.T) {
	_, err := DecodePostingBlock([]byte{1, 2})
	require.Error(t, err)
}
