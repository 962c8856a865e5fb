package pointer

import (
	"github.com/progslice/pdg/dgraph"
	"github.com/progslice/pdg/memory"
	"github.com/progslice/pdg/offset"
)

// FSInvEngine is the MemoryResolver for the flow-sensitive-with-invalidation
// variant (spec §4.3): built on top of FlowSensitiveEngine's per-node
// MemoryMap machinery, it additionally treats Free, InvalidateObject and
// InvalidateLocals as map-modifying nodes that rewrite every reference to an
// invalidated allocation to point at the Invalidated marker — strongly
// (discarding the old reference) when the invalidated allocation is not
// global and not itself inside a loop, and the invalidating pointer's
// points-to set is a single pair with a concrete offset; weakly (keeping the
// old reference alongside Invalidated) otherwise.
type FSInvEngine struct {
	base *FlowSensitiveEngine
}

// NewFSInvEngine returns a fresh flow-sensitive-with-invalidation resolver.
func NewFSInvEngine() *FSInvEngine {
	return &FSInvEngine{base: NewFlowSensitiveEngine()}
}

// CanChangeMM extends the plain flow-sensitive set with Free,
// InvalidateObject and InvalidateLocals, which must install their own
// (cloned) MemoryMap in order to rewrite it in place.
func (e *FSInvEngine) CanChangeMM(a *Analysis, id dgraph.NodeID) bool {
	switch a.Graph.Node(id).Tag {
	case Free, InvalidateObject, InvalidateLocals:
		return true
	default:
		return e.base.CanChangeMM(a, id)
	}
}

// BeforeProcessed installs the merged-and-possibly-cloned map exactly as the
// plain flow-sensitive engine does, then applies any invalidation this node
// itself triggers.
func (e *FSInvEngine) BeforeProcessed(a *Analysis, id dgraph.NodeID) {
	e.base.BeforeProcessed(a, id)

	n := a.Graph.Node(id)
	switch n.Tag {
	case Free:
		e.invalidatePointee(a, id, n.Operands()[0])
	case InvalidateObject:
		e.invalidatePointee(a, id, n.Operands()[0])
	case InvalidateLocals:
		e.invalidateLocals(a, id)
	}
}

// AfterProcessed delegates to the plain flow-sensitive engine's
// round-over-round map comparison — invalidation is just another kind of
// outgoing-map mutation from that test's point of view.
func (e *FSInvEngine) AfterProcessed(a *Analysis, id dgraph.NodeID) bool {
	return e.base.AfterProcessed(a, id)
}

// GetMemoryObjects delegates to the plain flow-sensitive engine: invalidation
// only changes what a target's points-to set contains, not how objects are
// looked up or cloned for write.
func (e *FSInvEngine) GetMemoryObjects(a *Analysis, where, target dgraph.NodeID, isWriter bool) (*memory.Object, bool) {
	return e.base.GetMemoryObjects(a, where, target, isWriter)
}

// invalidatePointee rewrites every reference to each allocation ptrOperand's
// points-to set targets, across every object in node's outgoing map.
func (e *FSInvEngine) invalidatePointee(a *Analysis, node, ptrOperand dgraph.NodeID) {
	ptr := a.Graph.Node(ptrOperand)
	state := fsStateOf(a.Graph.Node(node))
	by := a.Graph.Node(node).Tag
	ptr.PointsTo.Each(func(t dgraph.NodeID, _ offset.Offset) {
		tn := a.Graph.Node(t)
		if !tn.IsDereferenceable() || tn.Tag != Alloc {
			return
		}
		strong := e.isStrongInvalidation(a, ptr, t)
		e.rewriteEverywhere(state, t, a.Graph.Invalidated, strong)
		a.diagnoseInvalidation(t, node, "invalidated via n%d (%s)", node, by)
	})
}

// invalidateLocals invalidates the non-global, non-heap allocations visible
// in node's outgoing map whose Parent equals the returning function's own
// subgraph (spec §4.3: "Locals are invalidated only if the allocation's
// parent equals the current function and its instance is not on a loop") —
// Parent is populated for every node by AssignParents before an Analysis
// ever runs. An allocation reachable here but owned by a different subgraph
// (e.g. a stack address the caller passed in as an argument) is left alone:
// it is that caller's local, not this function's, and must survive this
// return. Strength is computed per target rather than once for the whole
// call, since a single InvalidateLocals node can see locals with different
// loop memberships.
func (e *FSInvEngine) invalidateLocals(a *Analysis, node dgraph.NodeID) {
	state := fsStateOf(a.Graph.Node(node))
	owner := a.Graph.Node(node).Parent
	for _, target := range state.outgoing.Targets() {
		tn := a.Graph.Node(target)
		if tn.Tag != Alloc || tn.AllocAttrs().Global || tn.AllocAttrs().Heap {
			continue
		}
		if tn.Parent != owner {
			continue
		}
		strong := !a.nodeInLoop(target)
		e.rewriteEverywhere(state, target, a.Graph.Invalidated, strong)
		a.diagnoseInvalidation(target, node, "local invalidated at function return")
	}
}

// rewriteEverywhere clones (for write) and rewrites every object currently
// installed in state.outgoing, replacing oldTarget with newTarget.
func (e *FSInvEngine) rewriteEverywhere(state *fsState, oldTarget, newTarget dgraph.NodeID, strong bool) {
	for _, target := range state.outgoing.Targets() {
		obj := state.outgoing.CloneObjectForWrite(target)
		obj.Rewrite(oldTarget, newTarget, offset.Unknown, strong)
	}
}

// isStrongInvalidation implements spec §4.3's "locals are invalidated only
// if …" local/non-local distinction (supplemented per original_source's
// PointerAnalysisFSInv, §SPEC_FULL item 2): a strong (replacing) rewrite
// requires a non-global allocation, a precisely-known single pointee, and the
// allocation itself (not the Free/InvalidateObject call site) not being on a
// control-flow loop — an Alloc inside a loop has multiple runtime instances,
// so any one Free/InvalidateObject of it, wherever that call site sits, may
// only be discarding one of several live instances, and only a weak (adding)
// rewrite is sound.
func (e *FSInvEngine) isStrongInvalidation(a *Analysis, ptr *PSNode, target dgraph.NodeID) bool {
	tn := a.Graph.Node(target)
	if tn.AllocAttrs().Global {
		return false
	}
	if a.nodeInLoop(target) {
		return false
	}
	_, _, singleton := ptr.PointsTo.MustPointTo()
	return singleton
}
