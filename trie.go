package engine

import "fmt"

// ═══════════════════════════════════════════════════════════════════════════════
// COMPACT NODE TRIE  (spec §4.1)
// ═══════════════════════════════════════════════════════════════════════════════
// A prefix trie whose nodes are bucketed by successor count into distinct
// block types (Data, N1, N2, N4, N8, N16, N256), grounded on
// compactNodeTrie.hpp. Each class stores its nodes as a flat array of
// equally-sized units; a node is addressed by a 32-bit virtual address built
// from its class (top 3 bits) and its index within that class's block (low
// 21 bits, packAddress/addressClass/addressIndex in alloc.go).
//
// Per SPEC_FULL.md's resolution of spec.md §9's first Open Question: byte
// 0x00 is reserved as the "unused edge" sentinel (as in the original) and
// byte 0xFF is reserved as an end-of-key marker. Insert/Lookup reject keys
// containing either byte rather than reproducing the ambiguous special case
// in the C++ original.
// ═══════════════════════════════════════════════════════════════════════════════

const (
	reservedEdgeSentinel byte = 0x00
	reservedKeyTerminator byte = 0xFF
)

// nodeN1 stores exactly one successor edge.
type nodeN1 struct {
	lexem byte
	addr  uint32
}

func (n *nodeN1) nextFree() uint32    { return n.addr }
func (n *nodeN1) setNextFree(v uint32) { n.addr = v }

// nodeN holds up to `cap(lexem)` successor edges in parallel arrays, scanned
// linearly (as the original's NodeN<NN>::successor does with memchr).
type nodeN struct {
	lexem []byte
	addr  []uint32
	next  uint32 // free-list link, valid only while unallocated
}

func (n *nodeN) nextFree() uint32    { return n.next }
func (n *nodeN) setNextFree(v uint32) { n.next = v }

func newNodeN(width int) nodeN {
	return nodeN{lexem: make([]byte, 0, width), addr: make([]uint32, 0, width)}
}

func (n *nodeN) successor(chr byte) (uint32, bool) {
	for i, l := range n.lexem {
		if l == chr {
			return n.addr[i], true
		}
	}
	return 0, false
}

func (n *nodeN) addEdge(chr byte, addr uint32) bool {
	if len(n.lexem) == cap(n.lexem) {
		return false
	}
	n.lexem = append(n.lexem, chr)
	n.addr = append(n.addr, addr)
	return true
}

func (n *nodeN) replaceEdge(chr byte, addr uint32) bool {
	for i, l := range n.lexem {
		if l == chr {
			n.addr[i] = addr
			return true
		}
	}
	return false
}

func (n *nodeN) full() bool { return len(n.lexem) == cap(n.lexem) }

// nodeN256 is directly indexed by the edge byte — no scan needed.
type nodeN256 struct {
	addr [256]uint32 // 0 means unoccupied (address 0 is reserved for NULL)
	next uint32
}

func (n *nodeN256) nextFree() uint32    { return n.next }
func (n *nodeN256) setNextFree(v uint32) { n.next = v }

// dataBlock stores the uint32 values assigned to complete keys. It has its
// own small free list since a bare uint32 can't carry a freeListLink method
// set; index 0 is reserved to mean "no value" (mirrors m_datablock[0]=0 in
// the original).
type dataBlock struct {
	values []uint32
	free   []uint32
}

func newDataBlock() *dataBlock {
	return &dataBlock{values: []uint32{0}}
}

func (d *dataBlock) alloc(val uint32) uint32 {
	if n := len(d.free); n > 0 {
		idx := d.free[n-1]
		d.free = d.free[:n-1]
		d.values[idx] = val
		return idx
	}
	idx := uint32(len(d.values))
	d.values = append(d.values, val)
	return idx
}

func (d *dataBlock) release(idx uint32) {
	d.values[idx] = 0
	d.free = append(d.free, idx)
}

// CompactTrie is a prefix trie mapping byte-string keys to uint32 values,
// using the packed node-class representation described above.
type CompactTrie struct {
	root  uint32
	data  *dataBlock
	b1    *blockAllocator[nodeN1]
	b2    *blockAllocator[nodeN]
	b4    *blockAllocator[nodeN]
	b8    *blockAllocator[nodeN]
	b16   *blockAllocator[nodeN]
	b256  *blockAllocator[nodeN256]
}

// NewCompactTrie constructs an empty trie.
func NewCompactTrie() *CompactTrie {
	return &CompactTrie{
		data: newDataBlock(),
		b1:   newBlockAllocator[nodeN1](),
		b2:   newBlockAllocator[nodeN](),
		b4:   newBlockAllocator[nodeN](),
		b8:   newBlockAllocator[nodeN](),
		b16:  newBlockAllocator[nodeN](),
		b256: newBlockAllocator[nodeN256](),
	}
}

func validateKey(key []byte) error {
	for _, c := range key {
		if c == reservedEdgeSentinel || c == reservedKeyTerminator {
			return newInputDomainError("trie key", fmt.Sprintf("byte 0x%02x is reserved", c))
		}
	}
	return nil
}

// successorOf returns the address an edge labeled chr leads to from addr,
// or 0 (no successor) if there is none.
func (t *CompactTrie) successorOf(addr uint32, chr byte) uint32 {
	if addr == 0 {
		return 0
	}
	switch addressClass(addr) {
	case classN1:
		n := t.b1.get(addressIndex(addr))
		if n.lexem == chr {
			return n.addr
		}
		return 0
	case classN2:
		a, _ := t.b2.get(addressIndex(addr)).successor(chr)
		return a
	case classN4:
		a, _ := t.b4.get(addressIndex(addr)).successor(chr)
		return a
	case classN8:
		a, _ := t.b8.get(addressIndex(addr)).successor(chr)
		return a
	case classN16:
		a, _ := t.b16.get(addressIndex(addr)).successor(chr)
		return a
	case classN256:
		return t.b256.get(addressIndex(addr)).addr[chr]
	default:
		return 0
	}
}

// Get looks up key and reports its value, mirroring CompactNodeTrie::get.
func (t *CompactTrie) Get(key []byte) (uint32, bool) {
	if err := validateKey(key); err != nil {
		return 0, false
	}
	addr := t.root
	for _, chr := range key {
		addr = t.successorOf(addr, chr)
		if addr == 0 {
			return 0, false
		}
	}
	terminal := t.successorOf(addr, reservedKeyTerminator)
	if terminal == 0 || addressClass(terminal) != classData {
		return 0, false
	}
	return t.data.values[addressIndex(terminal)], true
}

// Set inserts or updates key's value, mirroring CompactNodeTrie::set.
// Returns a CapacityError if a node class saturates its 21-bit index space.
func (t *CompactTrie) Set(key []byte, val uint32) error {
	if err := validateKey(key); err != nil {
		return err
	}
	fullkey := append(append([]byte(nil), key...), reservedKeyTerminator)
	newRoot, err := t.insert(t.root, fullkey, val)
	if err != nil {
		return err
	}
	t.root = newRoot
	return nil
}

// insert walks suffix one byte at a time below addr, allocating/expanding
// nodes bottom-up and patching each parent's edge on the way back up, and
// returns the (possibly relocated, e.g. after a class expansion) address of
// the subtree rooted at addr. This replaces C++'s in-place pointer patching
// (patchNodeAddress) with return-value propagation, since Go addresses here
// are plain integers rather than real pointers.
func (t *CompactTrie) insert(addr uint32, suffix []byte, val uint32) (uint32, error) {
	chr := suffix[0]
	rest := suffix[1:]
	existing := t.successorOf(addr, chr)

	var childAddr uint32
	if len(rest) == 0 {
		if existing != 0 && addressClass(existing) == classData {
			t.data.values[addressIndex(existing)] = val
			childAddr = existing
		} else {
			childAddr = packAddress(classData, t.data.alloc(val))
		}
	} else {
		var err error
		childAddr, err = t.insert(existing, rest, val)
		if err != nil {
			return 0, err
		}
	}
	return t.withEdge(addr, chr, childAddr)
}

// withEdge adds or replaces the edge labeled chr under addr so that it leads
// to childAddr, expanding addr's node class if it is already saturated
// (mirrors addNodeExpand), and returns the resulting address of addr's node
// (unchanged unless an expansion relocated it).
func (t *CompactTrie) withEdge(addr uint32, chr byte, childAddr uint32) (uint32, error) {
	if addr == 0 {
		idx, ok := allocLinked(t.b1)
		if !ok {
			return 0, newCapacityError("trie", "node1 block saturated")
		}
		n1 := t.b1.get(idx)
		n1.lexem = chr
		n1.addr = childAddr
		return packAddress(classN1, idx), nil
	}
	class := addressClass(addr)
	idx := addressIndex(addr)
	switch class {
	case classN1:
		n1 := t.b1.get(idx)
		if n1.lexem == chr {
			n1.addr = childAddr
			return addr, nil
		}
		n2idx, ok := allocLinked(t.b2)
		if !ok {
			return 0, newCapacityError("trie", "node2 block saturated")
		}
		n2 := t.b2.get(n2idx)
		*n2 = newNodeN(2)
		n2.addEdge(n1.lexem, n1.addr)
		n2.addEdge(chr, childAddr)
		releaseLinked(t.b1, idx)
		return packAddress(classN2, n2idx), nil
	case classN2, classN4, classN8, classN16:
		n := t.blockFor(class).get(idx)
		if n.replaceEdge(chr, childAddr) {
			return addr, nil
		}
		if !n.full() {
			n.addEdge(chr, childAddr)
			return addr, nil
		}
		return t.expand(class, idx, chr, childAddr)
	case classN256:
		t.b256.get(idx).addr[chr] = childAddr
		return addr, nil
	default:
		return 0, newInvariantError("trie", "withEdge on non-edge address class")
	}
}

func (t *CompactTrie) blockFor(class nodeClass) *blockAllocator[nodeN] {
	switch class {
	case classN2:
		return t.b2
	case classN4:
		return t.b4
	case classN8:
		return t.b8
	case classN16:
		return t.b16
	default:
		return nil
	}
}

// widthOf maps a node class to its successor-array capacity.
func widthOf(class nodeClass) int {
	switch class {
	case classN2:
		return 2
	case classN4:
		return 4
	case classN8:
		return 8
	case classN16:
		return 16
	default:
		return 0
	}
}

// expand grows a saturated N2/N4/N8/N16 node into the next size class (or
// into N256 beyond N16), copying its edges across, releasing the old block
// slot, and returning the new node's address. Mirrors
// CompactNodeTrie::expandNode.
func (t *CompactTrie) expand(class nodeClass, idx uint32, chr byte, target uint32) (uint32, error) {
	old := t.blockFor(class).get(idx)
	switch class {
	case classN2, classN4, classN8:
		nextClass := class + 1
		width := widthOf(nextClass)
		dst := t.blockFor(nextClass)
		nidx, ok := allocLinked(dst)
		if !ok {
			return 0, newCapacityError("trie", fmt.Sprintf("node%d block saturated", width))
		}
		nn := dst.get(nidx)
		*nn = newNodeN(width)
		nn.lexem = append(nn.lexem, old.lexem...)
		nn.addr = append(nn.addr, old.addr...)
		nn.addEdge(chr, target)
		releaseLinked(t.blockFor(class), idx)
		return packAddress(nextClass, nidx), nil
	case classN16:
		nidx, ok := allocLinked(t.b256)
		if !ok {
			return 0, newCapacityError("trie", "node256 block saturated")
		}
		n256 := t.b256.get(nidx)
		*n256 = nodeN256{}
		for i, l := range old.lexem {
			n256.addr[l] = old.addr[i]
		}
		n256.addr[chr] = target
		releaseLinked(t.b16, idx)
		return packAddress(classN256, nidx), nil
	default:
		return 0, newInvariantError("trie", "expand called on non-expandable class")
	}
}

// Len reports how many complete keys are stored, in O(1), as the data
// block's live-slot count.
func (t *CompactTrie) Len() int {
	return len(t.data.values) - 1 - len(t.data.free)
}

// branches returns every (edge byte, child address) pair out of addr, in
// ascending byte order, mirroring the original's getFirstNode/getNextNode
// walk used by const_iterator.
func (t *CompactTrie) branches(addr uint32) []struct {
	chr  byte
	addr uint32
} {
	if addr == 0 {
		return nil
	}
	var out []struct {
		chr  byte
		addr uint32
	}
	switch addressClass(addr) {
	case classN1:
		n := t.b1.get(addressIndex(addr))
		out = append(out, struct {
			chr  byte
			addr uint32
		}{n.lexem, n.addr})
	case classN2, classN4, classN8, classN16:
		n := t.blockFor(addressClass(addr)).get(addressIndex(addr))
		for i, l := range n.lexem {
			out = append(out, struct {
				chr  byte
				addr uint32
			}{l, n.addr[i]})
		}
		sortBranches(out)
	case classN256:
		n := t.b256.get(addressIndex(addr))
		for i := 0; i < 256; i++ {
			if n.addr[i] != 0 {
				out = append(out, struct {
					chr  byte
					addr uint32
				}{byte(i), n.addr[i]})
			}
		}
	}
	return out
}

func sortBranches(out []struct {
	chr  byte
	addr uint32
}) {
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].chr < out[j-1].chr; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
}

// VisitPrefix enumerates every key stored under prefix in ascending
// lexicographic order, calling fn(key, value) for each. Enumeration stops
// early if fn returns false. This backs the symbol table's ordered scans
// (§4.5) and the statistics builder's composite-key walk (§4.6), both of
// which need sorted term enumeration the way statisticsBuilder.cpp does.
func (t *CompactTrie) VisitPrefix(prefix []byte, fn func(key []byte, val uint32) bool) {
	if err := validateKey(prefix); err != nil {
		return
	}
	addr := t.root
	for _, chr := range prefix {
		addr = t.successorOf(addr, chr)
		if addr == 0 {
			return
		}
	}
	t.visit(addr, append([]byte(nil), prefix...), fn)
}

// Visit enumerates the whole trie in ascending key order.
func (t *CompactTrie) Visit(fn func(key []byte, val uint32) bool) {
	t.visit(t.root, nil, fn)
}

func (t *CompactTrie) visit(addr uint32, key []byte, fn func(key []byte, val uint32) bool) bool {
	branches := t.branches(addr)
	// The end-of-key edge (0xFF) sorts after every other byte, but a key sorts
	// before the longer keys it prefixes, so its value is emitted first.
	for _, br := range branches {
		if br.chr == reservedKeyTerminator && addressClass(br.addr) == classData {
			if !fn(key, t.data.values[addressIndex(br.addr)]) {
				return false
			}
		}
	}
	for _, br := range branches {
		if br.chr == reservedKeyTerminator {
			continue
		}
		child := make([]byte, len(key)+1)
		copy(child, key)
		child[len(key)] = br.chr
		if !t.visit(br.addr, child, fn) {
			return false
		}
	}
	return true
}
