// Package arena implements the index-overlay AST storage described in
// spec.md §3-4.1: nodes live as fixed-size records in one contiguous
// slice (plus a flat child-id pool) addressed by an integer NodeIndex,
// not as a heap object graph. The records are stored as an array of
// structs, not as a separate parallel array per field.
//
// The allocation discipline is grounded on the teacher's generic slab
// allocator (standardbeagle/lci internal/alloc/slab_allocator.go): instead
// of tiered sync.Pool buckets reused across many short-lived slices, a
// single Arena owns one growable record slice and child-id pool per parse, with a
// hard byte budget enforced at both creation and growth time.
package arena

import (
	"fmt"

	"github.com/standardbeagle/javafmt/internal/errs"
)

// NodeIndex is a non-negative integer handle into an Arena, or the
// sentinel Null (spec.md §3).
type NodeIndex int32

// Null is the sentinel "no node" value. Only the root's parent may equal
// Null; every other slot must resolve to a live node.
const Null NodeIndex = -1

// NewNodeIndex validates and constructs a NodeIndex from a raw integer.
// Only Null (-1) is accepted as negative; any other negative value is a
// construction failure (spec.md §3, testable property #1).
func NewNodeIndex(v int32) (NodeIndex, error) {
	if v == int32(Null) {
		return Null, nil
	}
	if v < 0 {
		return Null, fmt.Errorf("arena: invalid NodeIndex %d: only -1 (Null) may be negative", v)
	}
	return NodeIndex(v), nil
}

// IsNull reports whether idx is the Null sentinel.
func (idx NodeIndex) IsNull() bool { return idx == Null }

const bytesPerNode = 16 // nominal per-node budget used for cap accounting; the stored record (u32 start, u32 length, u8 type, i32 parent, u32+u32 children window) occupies 24 bytes with padding

// DefaultMaxBytes is the default hard cap on node-array bytes (spec.md
// §3: default 256 MiB for node bytes).
const DefaultMaxBytes = 256 * 1024 * 1024

// record is one node's data as the Arena stores it: the Arena keeps a
// single []record slice (array of structs), not one slice per field.
// Get copies a record out into the exported NodeRecord view.
type record struct {
	startOffset   uint32
	length        uint32
	nodeType      NodeType
	parent        NodeIndex
	childrenStart uint32
	childrenCount uint32
}

// NodeRecord is the read-only view of one arena node handed back by Get.
type NodeRecord struct {
	Index         NodeIndex
	StartOffset   uint32
	Length        uint32
	NodeType      NodeType
	Parent        NodeIndex
	ChildrenStart uint32
	ChildrenCount uint32
}

// EndOffset is StartOffset+Length, the exclusive end of the node's span.
func (r NodeRecord) EndOffset() uint32 { return r.StartOffset + r.Length }

// Arena is the bulk-allocated, contiguous node store for one parse. It
// is not safe for concurrent use by multiple goroutines, matching
// spec.md §5: an arena belongs to exactly one file's task for its
// lifetime.
type Arena struct {
	nodes      []record
	childIDs   []NodeIndex
	maxBytes   int
	alive      bool
	sourceLen  int
}

// Create allocates an arena sized for estimatedNodes, failing with
// AllocationLimitExceeded if that estimate alone would exceed maxBytes
// (spec.md §4.1). maxBytes<=0 selects DefaultMaxBytes.
func Create(estimatedNodes int, maxBytes int, sourceLen int) (*Arena, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if estimatedNodes < 0 {
		estimatedNodes = 0
	}
	if estimatedNodes*bytesPerNode > maxBytes {
		return nil, errs.NewArenaError(errs.KindAllocationLimit,
			fmt.Errorf("estimated %d nodes (%d bytes) exceeds cap of %d bytes", estimatedNodes, estimatedNodes*bytesPerNode, maxBytes))
	}
	return &Arena{
		nodes:     make([]record, 0, estimatedNodes),
		childIDs:  make([]NodeIndex, 0, estimatedNodes*2),
		maxBytes:  maxBytes,
		alive:     true,
		sourceLen: sourceLen,
	}, nil
}

// CreateForSource estimates node count from source length using the
// spec's default heuristic of one node per five bytes (spec.md §4.1).
func CreateForSource(sourceLen int, maxBytes int) (*Arena, error) {
	estimate := sourceLen / 5
	if estimate < 16 {
		estimate = 16
	}
	return Create(estimate, maxBytes, sourceLen)
}

// IsAlive reports whether the arena has not yet been closed.
func (a *Arena) IsAlive() bool { return a.alive }

func (a *Arena) currentBytes() int {
	return len(a.nodes)*bytesPerNode + len(a.childIDs)*4
}

// AllocateNode appends a new node with the given span/type, parented
// under parent (or Null for the root). It grows the backing slices by
// doubling capacity and returns AllocationLimitExceeded if growth would
// breach maxBytes. Runs in amortized O(1) (spec.md §4.1).
//
// A node with a non-Null parent is linked into that parent's children
// window in the shared child-id pool as it is allocated (see
// appendChild); if another node's children were appended in between,
// the parent's window is relocated to the tail so it stays contiguous.
func (a *Arena) AllocateNode(startOffset, length uint32, nodeType NodeType, parent NodeIndex) (NodeIndex, error) {
	if !a.alive {
		return Null, errs.NewArenaError(errs.KindArenaClosed, nil)
	}
	if len(a.nodes) == cap(a.nodes) {
		newCap := growCapacity(cap(a.nodes))
		if newCap*bytesPerNode > a.maxBytes {
			return Null, errs.NewArenaError(errs.KindAllocationLimit,
				fmt.Errorf("growing node storage to %d nodes would exceed %d byte cap", newCap, a.maxBytes))
		}
		grown := make([]record, len(a.nodes), newCap)
		copy(grown, a.nodes)
		a.nodes = grown
	}

	idx := NodeIndex(len(a.nodes))
	a.nodes = append(a.nodes, record{
		startOffset: startOffset,
		length:      length,
		nodeType:    nodeType,
		parent:      parent,
	})

	if !parent.IsNull() {
		if err := a.appendChild(parent, idx); err != nil {
			return Null, err
		}
	}

	return idx, nil
}

// appendChild grows the shared child-id pool and extends parent's
// children window. Because children are appended in source order as
// each child finishes parsing, parent's window stays contiguous without
// a separate compaction pass.
func (a *Arena) appendChild(parent NodeIndex, child NodeIndex) error {
	if int(parent) < 0 || int(parent) >= len(a.nodes) {
		return errs.NewArenaError(errs.KindInvalidNodeIndex, fmt.Errorf("parent index %d out of range", parent))
	}
	p := &a.nodes[parent]

	// Fast path: parent's window is already the tail of childIDs, so we
	// can just append and extend the count.
	if p.childrenCount == 0 {
		p.childrenStart = uint32(len(a.childIDs))
	} else if int(p.childrenStart+p.childrenCount) != len(a.childIDs) {
		// Another node's children were interleaved; relocate this
		// parent's window to the tail so it stays contiguous.
		existing := append([]NodeIndex(nil), a.childIDs[p.childrenStart:p.childrenStart+p.childrenCount]...)
		p.childrenStart = uint32(len(a.childIDs))
		if (len(a.childIDs)+len(existing)+1)*4 > a.maxBytes {
			return errs.NewArenaError(errs.KindAllocationLimit, fmt.Errorf("child pool relocation would exceed %d byte cap", a.maxBytes))
		}
		a.childIDs = append(a.childIDs, existing...)
	}

	if (len(a.childIDs)+1)*4 > a.maxBytes {
		return errs.NewArenaError(errs.KindAllocationLimit, fmt.Errorf("child pool growth would exceed %d byte cap", a.maxBytes))
	}
	a.childIDs = append(a.childIDs, child)
	p.childrenCount++
	return nil
}

func growCapacity(current int) int {
	if current == 0 {
		return 64
	}
	return current * 2
}

// Get returns a read-only copy of the node at id. Fails with
// InvalidNodeIndex if id is out of range, or ArenaClosed if the arena
// has been closed.
func (a *Arena) Get(id NodeIndex) (NodeRecord, error) {
	if !a.alive {
		return NodeRecord{}, errs.NewArenaError(errs.KindArenaClosed, nil)
	}
	if id.IsNull() || int(id) < 0 || int(id) >= len(a.nodes) {
		return NodeRecord{}, errs.NewArenaError(errs.KindInvalidNodeIndex, fmt.Errorf("index %d out of range [0,%d)", id, len(a.nodes)))
	}
	r := a.nodes[id]
	return NodeRecord{
		Index:         id,
		StartOffset:   r.startOffset,
		Length:        r.length,
		NodeType:      r.nodeType,
		Parent:        r.parent,
		ChildrenStart: r.childrenStart,
		ChildrenCount: r.childrenCount,
	}, nil
}

// Children returns the child NodeIndex slice for id, in source order.
func (a *Arena) Children(id NodeIndex) ([]NodeIndex, error) {
	rec, err := a.Get(id)
	if err != nil {
		return nil, err
	}
	return a.childIDs[rec.ChildrenStart : rec.ChildrenStart+rec.ChildrenCount], nil
}

// Len returns the number of nodes currently stored.
func (a *Arena) Len() int { return len(a.nodes) }

// Close releases all storage. Idempotent; any subsequent access fails
// with ArenaClosed (spec.md §4.1).
func (a *Arena) Close() {
	if !a.alive {
		return
	}
	a.alive = false
	a.nodes = nil
	a.childIDs = nil
}

// ByteSize reports the arena's current approximate storage footprint,
// for diagnostics and the MemoryReservationManager's bookkeeping.
func (a *Arena) ByteSize() int { return a.currentBytes() }

// SourceLen returns the length of the source this arena was sized for.
func (a *Arena) SourceLen() int { return a.sourceLen }

// SetSpan overwrites the start/length of an already-allocated node. The
// recursive-descent driver allocates block-shaped nodes eagerly, at
// open-brace time, so their children can be parented under them while
// still being parsed; SetSpan lets the driver backfill the true span
// once the closing token is known.
func (a *Arena) SetSpan(id NodeIndex, start, length uint32) error {
	if !a.alive {
		return errs.NewArenaError(errs.KindArenaClosed, nil)
	}
	if id.IsNull() || int(id) < 0 || int(id) >= len(a.nodes) {
		return errs.NewArenaError(errs.KindInvalidNodeIndex, fmt.Errorf("index %d out of range [0,%d)", id, len(a.nodes)))
	}
	a.nodes[id].startOffset = start
	a.nodes[id].length = length
	return nil
}

// LinkChildAt parents an already-allocated child node under parent,
// appending it to parent's children window. Used when a node is
// allocated before its eventual parent is known to exist (e.g. a
// constructor body is parsed only after the constructor declaration
// node has already been allocated, to give strategies a parent to
// attach to during the parse).
func (a *Arena) LinkChildAt(parent, child NodeIndex) error {
	if !a.alive {
		return errs.NewArenaError(errs.KindArenaClosed, nil)
	}
	if int(child) < 0 || int(child) >= len(a.nodes) {
		return errs.NewArenaError(errs.KindInvalidNodeIndex, fmt.Errorf("child index %d out of range", child))
	}
	a.nodes[child].parent = parent
	return a.appendChild(parent, child)
}
