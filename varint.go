package engine

import "encoding/binary"

// ═══════════════════════════════════════════════════════════════════════════════
// VARINT ENCODING
// ═══════════════════════════════════════════════════════════════════════════════
// A single little-endian base-128 varint codec shared by the posting block
// codec (posting.go) and the statistics message codec (statsmessage.go):
// each byte carries 7 payload bits, the top bit set on every byte except the
// last (not a UTF-8-style length-prefixed layout). putUvarint/getUvarint
// wrap encoding/binary's PutUvarint/Uvarint so both codecs can append
// directly onto a growing []byte, the way the teacher's serialization.go
// builds its buffers with bytes.Buffer.
// ═══════════════════════════════════════════════════════════════════════════════

// putUvarint appends the varint encoding of v onto buf and returns the
// extended slice.
func putUvarint(buf []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(buf, tmp[:n]...)
}

// getUvarint reads a varint from the front of buf, returning the value, the
// number of bytes consumed, and false if buf does not contain a complete
// encoding.
func getUvarint(buf []byte) (uint64, int, bool) {
	v, n := binary.Uvarint(buf)
	if n <= 0 {
		return 0, 0, false
	}
	return v, n, true
}

// zigzagEncode maps a signed delta to an unsigned value so that small
// magnitudes (positive or negative) both encode compactly, matching the
// sign handling statisticsBuilder.cpp uses for document-frequency deltas
// that can be negative (a term disappearing from a shard).
func zigzagEncode(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func zigzagDecode(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

// putVarint appends a zigzag-encoded signed varint.
func putVarint(buf []byte, v int64) []byte {
	return putUvarint(buf, zigzagEncode(v))
}

func getVarint(buf []byte) (int64, int, bool) {
	u, n, ok := getUvarint(buf)
	if !ok {
		return 0, 0, false
	}
	return zigzagDecode(u), n, true
}
