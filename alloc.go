package engine

// ═══════════════════════════════════════════════════════════════════════════════
// PACKED-BLOCK ALLOCATOR
// ═══════════════════════════════════════════════════════════════════════════════
// Grounded on compactNodeTrie.hpp's BlockBase/Block<NODETYPE>: each node class
// (Data, N1, N2, N4, N8, N16, N256) gets its own growable slice of fixed-size
// units plus a singly-linked free list threaded through released slots. A
// node is addressed by a 32-bit virtual address: the top 3 bits select the
// class, the low 21 bits are the index within that class's block
// (NodeClass::MaxNofNodes = (1<<21)-1 in the original).
// ═══════════════════════════════════════════════════════════════════════════════

const (
	addressClassShift = 29
	addressClassMask  = 0x7
	addressIndexMask  = (1 << addressClassShift) - 1
	maxNodesPerBlock  = (1 << 21) - 1

	// nullNodeIndex marks an unallocated slot in a free-list chain.
	nullNodeIndex uint32 = 0xFFFFFFFF
)

// nodeClass identifies which block a virtual address resolves into.
type nodeClass uint8

const (
	classData nodeClass = iota
	classN1
	classN2
	classN4
	classN8
	classN16
	classN256
)

func (c nodeClass) String() string {
	switch c {
	case classData:
		return "Data"
	case classN1:
		return "N1"
	case classN2:
		return "N2"
	case classN4:
		return "N4"
	case classN8:
		return "N8"
	case classN16:
		return "N16"
	case classN256:
		return "N256"
	default:
		return "?"
	}
}

// packAddress combines a node class and in-block index into a virtual address.
func packAddress(class nodeClass, index uint32) uint32 {
	return index | (uint32(class) << addressClassShift)
}

func addressClass(addr uint32) nodeClass {
	return nodeClass((addr >> addressClassShift) & addressClassMask)
}

func addressIndex(addr uint32) uint32 {
	return addr & addressIndexMask
}

// blockAllocator is a bump-pointer arena with a free list, parameterized by
// a fixed-size unit type T. It never relocates allocated elements, so
// indices returned by Alloc remain valid until Release.
type blockAllocator[T any] struct {
	units    []T
	freeHead uint32
}

func newBlockAllocator[T any]() *blockAllocator[T] {
	return &blockAllocator[T]{freeHead: nullNodeIndex}
}

// freeListLink is implemented by unit types that can thread a free list
// through themselves (reusing their first field as a next-pointer), avoiding
// a side table. Node unit types implement this.
type freeListLink interface {
	nextFree() uint32
	setNextFree(uint32)
}

// allocLinked allocates reusing the free list when the unit type supports
// freeListLink; it is the primary entry point used by the trie.
func allocLinked[T freeListLink](b *blockAllocator[T]) (uint32, bool) {
	if b.freeHead != nullNodeIndex {
		idx := b.freeHead
		b.freeHead = b.units[idx].nextFree()
		var zero T
		b.units[idx] = zero
		return idx, true
	}
	if len(b.units) >= maxNodesPerBlock {
		return 0, false
	}
	var zero T
	idx := uint32(len(b.units))
	b.units = append(b.units, zero)
	return idx, true
}

// release returns a unit to the free list, threading it via nextFree.
func releaseLinked[T freeListLink](b *blockAllocator[T], idx uint32) {
	var zero T
	b.units[idx] = zero
	b.units[idx].setNextFree(b.freeHead)
	b.freeHead = idx
}

func (b *blockAllocator[T]) get(idx uint32) *T {
	return &b.units[idx]
}

func (b *blockAllocator[T]) len() int {
	return len(b.units)
}

// spaceLeft mirrors BlockBase::spaceLeft: how many more nodes this class can
// hold before saturating its 21-bit index space.
func (b *blockAllocator[T]) spaceLeft() int {
	return maxNodesPerBlock - len(b.units)
}
