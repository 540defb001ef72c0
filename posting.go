package engine

import "encoding/binary"

// ═══════════════════════════════════════════════════════════════════════════════
// POSTING BLOCKS  (spec §4.2)
// ═══════════════════════════════════════════════════════════════════════════════
// A term's postings are stored as a sequence of blocks, each holding a run
// of (DocumentNumber, []Position) entries. Within a block, document numbers
// and positions are delta-encoded as varints (varint.go) — document numbers
// strictly increasing, positions strictly increasing within a document —
// and a checkpoint array records (docno, byte-offset) pairs at fixed
// intervals; firstCheckpointAtOrBefore binary-searches it. The query path
// does not seek through checkpoints: PostingLeafIterator (iterator.go)
// decodes every block of its term in full when it is constructed.
// ═══════════════════════════════════════════════════════════════════════════════

const postingCheckpointInterval = 32

// PostingEntry is one document's full occurrence list within a block.
type PostingEntry struct {
	Doc       DocumentNumber
	Positions []Position
}

type postingCheckpoint struct {
	doc    DocumentNumber
	offset uint32
}

// EncodePostingBlock serializes entries (which must be sorted ascending by
// Doc, with each entry's Positions sorted ascending) into a block.
func EncodePostingBlock(entries []PostingEntry) []byte {
	var data []byte
	checkpoints := make([]postingCheckpoint, 0, len(entries)/postingCheckpointInterval+1)
	var prevDoc DocumentNumber
	for i, e := range entries {
		if i%postingCheckpointInterval == 0 {
			checkpoints = append(checkpoints, postingCheckpoint{doc: e.Doc, offset: uint32(len(data))})
		}
		data = putUvarint(data, uint64(e.Doc-prevDoc))
		prevDoc = e.Doc
		data = putUvarint(data, uint64(len(e.Positions)))
		var prevPos Position
		for _, p := range e.Positions {
			data = putUvarint(data, uint64(p-prevPos))
			prevPos = p
		}
	}

	header := make([]byte, 4)
	binary.LittleEndian.PutUint32(header, uint32(len(checkpoints)))
	for _, c := range checkpoints {
		header = binary.LittleEndian.AppendUint32(header, uint32(c.doc))
		header = binary.LittleEndian.AppendUint32(header, c.offset)
	}
	return append(header, data...)
}

// decodedBlock is a parsed view over an encoded posting block: its
// checkpoint table plus the still-encoded entry data.
type decodedBlock struct {
	checkpoints []postingCheckpoint
	data        []byte
}

func decodePostingBlock(buf []byte) (*decodedBlock, error) {
	if len(buf) < 4 {
		return nil, newInvariantError("posting block", "truncated header")
	}
	n := binary.LittleEndian.Uint32(buf[:4])
	off := 4
	checkpoints := make([]postingCheckpoint, n)
	for i := range checkpoints {
		if off+8 > len(buf) {
			return nil, newInvariantError("posting block", "truncated checkpoint table")
		}
		checkpoints[i] = postingCheckpoint{
			doc:    DocumentNumber(binary.LittleEndian.Uint32(buf[off:])),
			offset: binary.LittleEndian.Uint32(buf[off+4:]),
		}
		off += 8
	}
	return &decodedBlock{checkpoints: checkpoints, data: buf[off:]}, nil
}

// DecodePostingBlock fully materializes a block into entries.
// NewPostingLeafIterator calls it for every block of the term it loads.
func DecodePostingBlock(buf []byte) ([]PostingEntry, error) {
	blk, err := decodePostingBlock(buf)
	if err != nil {
		return nil, err
	}
	var out []PostingEntry
	pos := 0
	var doc DocumentNumber
	for pos < len(blk.data) {
		delta, n, ok := getUvarint(blk.data[pos:])
		if !ok {
			return nil, newInvariantError("posting block", "truncated doc delta")
		}
		pos += n
		doc += DocumentNumber(delta)

		count, n, ok := getUvarint(blk.data[pos:])
		if !ok {
			return nil, newInvariantError("posting block", "truncated position count")
		}
		pos += n

		positions := make([]Position, count)
		var p Position
		for i := uint64(0); i < count; i++ {
			d, n, ok := getUvarint(blk.data[pos:])
			if !ok {
				return nil, newInvariantError("posting block", "truncated position delta")
			}
			pos += n
			p += Position(d)
			positions[i] = p
		}
		out = append(out, PostingEntry{Doc: doc, Positions: positions})
	}
	return out, nil
}

// firstCheckpointAtOrBefore returns the checkpoint with the greatest doc <=
// target, or the first checkpoint if target precedes all of them.
func (b *decodedBlock) firstCheckpointAtOrBefore(target DocumentNumber) postingCheckpoint {
	lo, hi := 0, len(b.checkpoints)-1
	best := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if b.checkpoints[mid].doc <= target {
			best = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return b.checkpoints[best]
}

// lastDoc reports the block's highest document number by decoding the
// block's entries to the end.
func (b *decodedBlock) lastDoc() (DocumentNumber, bool) {
	if len(b.data) == 0 {
		return 0, false
	}
	pos := 0
	var doc DocumentNumber
	for pos < len(b.data) {
		delta, n, ok := getUvarint(b.data[pos:])
		if !ok {
			return 0, false
		}
		pos += n
		doc += DocumentNumber(delta)
		count, n, ok := getUvarint(b.data[pos:])
		if !ok {
			return 0, false
		}
		pos += n
		for i := uint64(0); i < count; i++ {
			_, n, ok := getUvarint(b.data[pos:])
			if !ok {
				return 0, false
			}
			pos += n
		}
	}
	return doc, true
}

// ─── posting block keys ─────────────────────────────────────────────────────

const postingKeyPrefix = 'P'

// PostingBlockKey builds the KVStore key for the posting block of term
// starting at or before firstDoc. Blocks sort by (term, firstDoc) so a Scan
// from PostingBlockKey(term, target) naturally lands at-or-after the right
// block.
func PostingBlockKey(term TermNumber, firstDoc DocumentNumber) []byte {
	key := []byte{postingKeyPrefix}
	key = putUvarint(key, uint64(term))
	key = binary.BigEndian.AppendUint32(key, uint32(firstDoc))
	return key
}

// PostingTermPrefix returns the key prefix common to every block of term,
// used to bound a Scan to just that term's blocks.
func PostingTermPrefix(term TermNumber) []byte {
	key := []byte{postingKeyPrefix}
	return putUvarint(key, uint64(term))
}

// prefixUpperBound returns the smallest key that sorts strictly after every
// key with the given prefix, for use as an exclusive Scan end bound.
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] != 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil // prefix is all 0xFF: no finite upper bound, scan to end of keyspace
}

// PostingTermPrefixEnd returns the exclusive Scan end bound for term's
// block range.
func PostingTermPrefixEnd(term TermNumber) []byte {
	return prefixUpperBound(PostingTermPrefix(term))
}
