package pointer

import (
	"github.com/progslice/pdg/dgraph"
	"github.com/progslice/pdg/memory"
)

// fsState is the per-node scratch data the flow-sensitive engines stash in
// PSNode.UserData: the MemoryMap observed on entry to the node (the merge of
// every predecessor's outgoing map) and the MemoryMap that leaves it.
type fsState struct {
	incoming *memory.Map
	outgoing *memory.Map

	// prevOutgoing is outgoing as it stood at the end of the previous round
	// this node ran, kept only so AfterProcessed can detect whether
	// anything actually changed.
	prevOutgoing *memory.Map
}

// FlowSensitiveEngine is the MemoryResolver for the plain flow-sensitive
// variant (spec §4.3): each node carries its own MemoryMap, shared by
// reference with predecessors that cannot change it and cloned (map-level,
// then object-level on actual write) by the handful that can.
type FlowSensitiveEngine struct{}

// NewFlowSensitiveEngine returns a fresh flow-sensitive resolver.
func NewFlowSensitiveEngine() *FlowSensitiveEngine { return &FlowSensitiveEngine{} }

func fsStateOf(n *PSNode) *fsState {
	s, ok := n.UserData().(*fsState)
	if !ok {
		s = &fsState{}
		n.SetUserData(s)
	}
	return s
}

// mergeIncoming computes the MemoryMap a node observes on entry: the empty
// map for a node with no predecessors (a subgraph's Entry), the single
// predecessor's outgoing map shared by reference, or the union of every
// predecessor's outgoing map for a CFG merge point.
func mergeIncoming(g *PointerGraph, n *PSNode) *memory.Map {
	preds := n.Predecessors()
	switch len(preds) {
	case 0:
		return memory.NewMap()
	case 1:
		return fsStateOf(g.Node(preds[0])).outgoing
	default:
		merged := memory.NewMap()
		for _, p := range preds {
			merged.Union(fsStateOf(g.Node(p)).outgoing)
		}
		return merged
	}
}

// BeforeProcessed installs node's incoming map (merged from predecessors)
// and, for a node that CanChangeMM, a map-level clone of it to write
// through — so the clone's eventual CloneObjectForWrite calls never mutate
// a predecessor's still-shared map.
func (e *FlowSensitiveEngine) BeforeProcessed(a *Analysis, id dgraph.NodeID) {
	n := a.Graph.Node(id)
	state := fsStateOf(n)
	merged := mergeIncoming(a.Graph, n)
	state.incoming = merged
	if a.Resolver.CanChangeMM(a, id) {
		state.outgoing = merged.Clone()
	} else {
		state.outgoing = merged
	}
}

// AfterProcessed reports whether node's outgoing map differs from what it
// was the previous time this node ran, by value rather than by reference —
// the driver needs this to know whether to re-enqueue CFG successors purely
// for memory-state propagation.
func (e *FlowSensitiveEngine) AfterProcessed(a *Analysis, id dgraph.NodeID) bool {
	state := fsStateOf(a.Graph.Node(id))
	changed := state.prevOutgoing == nil || !state.outgoing.Equal(state.prevOutgoing)
	state.prevOutgoing = state.outgoing
	return changed
}

// CanChangeMM reports true for the handful of node kinds spec §4.3 singles
// out as able to install a new MemoryMap: a root with no predecessors,
// Store, Memcpy, CallFuncPtr, and a CallReturn paired with one.
func (e *FlowSensitiveEngine) CanChangeMM(a *Analysis, id dgraph.NodeID) bool {
	n := a.Graph.Node(id)
	if len(n.Predecessors()) == 0 {
		return true
	}
	switch n.Tag {
	case Store, Memcpy, CallFuncPtr:
		return true
	case CallReturn:
		return n.Paired != dgraph.Sentinel && a.Graph.Node(n.Paired).Tag == CallFuncPtr
	default:
		return false
	}
}

// GetMemoryObjects consults node where's own outgoing map (already the
// merged-and-possibly-cloned incoming state for this round, per
// BeforeProcessed).
func (e *FlowSensitiveEngine) GetMemoryObjects(a *Analysis, where, target dgraph.NodeID, isWriter bool) (*memory.Object, bool) {
	state := fsStateOf(a.Graph.Node(where))
	if isWriter {
		return state.outgoing.CloneObjectForWrite(target), true
	}
	return state.outgoing.Get(target)
}
