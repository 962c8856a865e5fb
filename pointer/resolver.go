package pointer

import (
	"github.com/progslice/pdg/dgraph"
	"github.com/progslice/pdg/memory"
)

// MemoryResolver is the trait the generic driver is parameterized over (spec
// §4.3, design note §9): it is the only place the three engines differ, and
// processNode in semantics.go never branches on which engine is running —
// it only ever calls through this interface.
type MemoryResolver interface {
	// GetMemoryObjects returns the memory object for target as observed from
	// node where, creating one lazily if isWriter is true and none exists
	// yet. ok is false when target has no object and isWriter is false (for
	// the flow-insensitive engine, a target never written anywhere; for the
	// flow-sensitive engines, a target that hasn't been written on any path
	// reaching where).
	GetMemoryObjects(a *Analysis, where, target dgraph.NodeID, isWriter bool) (obj *memory.Object, ok bool)

	// BeforeProcessed prepares node for processing — for flow-sensitive
	// engines, this installs the merged predecessor MemoryMap at node
	// before processNode reads or writes through it.
	BeforeProcessed(a *Analysis, node dgraph.NodeID)

	// AfterProcessed runs once node's semantics have been applied — for
	// flow-sensitive engines, this compares node's (possibly just-cloned)
	// outgoing MemoryMap with the one recorded on its previous visit;
	// successors merge it in their own BeforeProcessed. The returned bool
	// reports whether anything the driver must re-propagate changed
	// (the outgoing MemoryMap itself, for flow-sensitive engines) even if
	// the node's points-to set did not — the driver ORs this into its
	// changed flag so CFG successors are re-enqueued on memory-only
	// changes too.
	AfterProcessed(a *Analysis, node dgraph.NodeID) bool

	// CanChangeMM reports whether node is one of the handful of node kinds
	// that may install a new MemoryMap rather than just share its
	// predecessor's (spec §4.3: root, Store, Memcpy, CallFuncPtr, and a
	// CallReturn paired with a CallFuncPtr).
	CanChangeMM(a *Analysis, node dgraph.NodeID) bool
}
