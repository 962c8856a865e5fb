package pointer

import (
	"github.com/progslice/pdg/dgraph"
	"github.com/progslice/pdg/offset"
)

// processNode applies one node's transfer function and reports whether its
// points-to set (or, for Store/Memcpy, some memory object reachable from it)
// changed. This is the single dispatch point every engine shares (spec §4.4);
// engine-specific behaviour lives entirely behind MemoryResolver.
func processNode(a *Analysis, id dgraph.NodeID) bool {
	n := a.Graph.Node(id)
	a.Resolver.BeforeProcessed(a, id)
	changed := processNodeSemantics(a, n)
	if a.Resolver.AfterProcessed(a, id) {
		changed = true
	}
	return changed
}

// processNodeSemantics is the tag dispatch proper, split out so
// AfterProcessed always runs — even for tags with no transfer function of
// their own — and its return value can still be ORed into the final result.
func processNodeSemantics(a *Analysis, n *PSNode) bool {
	switch n.Tag {
	case Alloc, Function, NullAddr, UnknownMem, Invalidated:
		// Points-to already fixed at construction time; nothing to do.
		return false
	case Noop, Entry, Call, CallReturn, Fork, Join:
		return a.semUnionOperands(n)
	case Load:
		return a.semLoad(n)
	case Store:
		return a.semStore(n)
	case Gep:
		return a.semGep(n)
	case Cast:
		return a.semUnionOperands(n)
	case Phi:
		return a.semUnionOperands(n)
	case Return:
		return a.semUnionOperands(n)
	case Constant:
		return false // asserted immutable at construction
	case Memcpy:
		return a.semMemcpy(n)
	case CallFuncPtr:
		return a.semCallFuncPtr(n)
	case Free:
		return a.semFree(n)
	case InvalidateObject:
		return a.semInvalidateObject(n)
	case InvalidateLocals:
		return a.semInvalidateLocals(n)
	default:
		panic("pointer: processNode: unhandled tag " + n.Tag.String())
	}
}

// semUnionOperands implements every node whose points-to set is simply the
// union of its operands': Cast, Phi, Return, and every scaffolding node
// (Noop, Entry, Call, CallReturn, Fork, Join) that merely forwards whatever a
// predecessor with a matching points-to computation feeds it via operands.
func (a *Analysis) semUnionOperands(n *PSNode) bool {
	changed := false
	for _, opID := range n.Operands() {
		op := a.Graph.Node(opID)
		if n.PointsTo.Union(op.PointsTo) {
			changed = true
		}
	}
	return changed
}

// semLoad implements "Load p: for each (t,o) in p's set that can be
// dereferenced, union the memory object's value at offset o into the load's
// points-to set" (spec §4.4).
func (a *Analysis) semLoad(n *PSNode) bool {
	ptr := a.Graph.Node(n.Operands()[0])
	changed := false
	ptr.PointsTo.Each(func(t dgraph.NodeID, o offset.Offset) {
		tn := a.Graph.Node(t)
		if !tn.IsDereferenceable() {
			return
		}
		obj, ok := a.Resolver.GetMemoryObjects(a, n.ID(), t, false)
		if !ok || obj == nil {
			if tn.Tag == Alloc && tn.AllocAttrs().ZeroInitialized {
				if n.PointsTo.Add(a.Graph.Null, offset.Offset(0)) {
					changed = true
				}
				return
			}
			a.diagnose(EmptyPointsToAtDeref, n.ID(), "load through n%d has no reaching write at offset %s", t, o)
			return
		}
		if n.PointsTo.Union(obj.ReadAt(o)) {
			changed = true
		}
	})
	return changed
}

// semStore implements "Store v, p: for each (t,o) in p's set that can be
// dereferenced, union v's points-to set into the memory object at offset o"
// (spec §4.4) — always a weak update; strong update is reserved for the RD
// analysis's def-site lattice, not the pointer analysis's own memory model.
func (a *Analysis) semStore(n *PSNode) bool {
	val := a.Graph.Node(n.Operands()[0])
	ptr := a.Graph.Node(n.Operands()[1])
	changed := false
	ptr.PointsTo.Each(func(t dgraph.NodeID, o offset.Offset) {
		tn := a.Graph.Node(t)
		if !tn.IsDereferenceable() {
			return
		}
		obj, ok := a.Resolver.GetMemoryObjects(a, n.ID(), t, true)
		if !ok || obj == nil {
			return
		}
		if obj.WriteAt(o, val.PointsTo) {
			changed = true
		}
	})
	return changed
}

// semGep implements field-sensitive offset arithmetic with the
// field-sensitivity and known-size coercion rule of spec §4.4's Gep bullet.
func (a *Analysis) semGep(n *PSNode) bool {
	base := a.Graph.Node(n.Operands()[0])
	attrs := n.GepAttrs()
	k := attrs.Offset
	changed := false
	base.PointsTo.Each(func(t dgraph.NodeID, o offset.Offset) {
		if attrs.Coarsened {
			if n.PointsTo.Add(t, offset.Unknown) {
				changed = true
			}
			return
		}
		newOff := o.Add(k)
		if !newOff.IsUnknown() && newOff != offset.Offset(0) {
			tn := a.Graph.Node(t)
			size := offset.Unknown
			if tn.Tag == Alloc {
				size = tn.Size
			}
			exceedsSize := !size.IsUnknown() && !newOff.Less(size)
			exceedsFieldSensitivity := !a.Options.FieldSensitivity.IsUnknown() && !newOff.Less(a.Options.FieldSensitivity)
			if exceedsSize || exceedsFieldSensitivity {
				newOff = offset.Unknown
			}
		}
		if n.PointsTo.Add(t, newOff) {
			changed = true
		}
	})
	return changed
}

// semMemcpy implements "Memcpy src, dst, length: for every (ts,os) in src's
// set and (td,od) in dst's set, copy every byte-offset bucket of ts's object
// inside [os, os+length) into td's object, shifted so that os maps to od"
// (spec §4.4). An unknown source offset or length is treated conservatively
// as covering the whole source object.
func (a *Analysis) semMemcpy(n *PSNode) bool {
	src := a.Graph.Node(n.Operands()[0])
	dst := a.Graph.Node(n.Operands()[1])
	length := n.MemcpyAttrs().Length
	changed := false

	src.PointsTo.Each(func(ts dgraph.NodeID, os offset.Offset) {
		tsNode := a.Graph.Node(ts)
		if !tsNode.IsDereferenceable() {
			return
		}
		srcObj, ok := a.Resolver.GetMemoryObjects(a, n.ID(), ts, false)
		if !ok || srcObj == nil {
			return
		}

		dst.PointsTo.Each(func(td dgraph.NodeID, od offset.Offset) {
			tdNode := a.Graph.Node(td)
			if !tdNode.IsDereferenceable() {
				return
			}
			dstObj, ok := a.Resolver.GetMemoryObjects(a, n.ID(), td, true)
			if !ok || dstObj == nil {
				return
			}

			if tsNode.Tag == Alloc && tsNode.AllocAttrs().ZeroInitialized && os == offset.Offset(0) &&
				tdNode.Tag == Alloc && (length.IsUnknown() || !length.Less(tsNode.Size)) {
				// A full-object copy from a zero-initialized source makes
				// the destination zero-initialized too.
				tdNode.AllocAttrs().ZeroInitialized = true
			}

			unboundedCopy := os.IsUnknown() || length.IsUnknown()
			for _, k := range srcObj.Offsets() {
				if !unboundedCopy && (k.Less(os) || !k.Sub(os).Less(length)) {
					continue
				}
				destOff := od
				if !unboundedCopy && !od.IsUnknown() && !k.IsUnknown() {
					destOff = od.Add(k.Sub(os))
				} else {
					destOff = offset.Unknown
				}
				if dstObj.WriteAt(destOff, srcObj.AtOffset(k)) {
					changed = true
				}
			}
			whole := srcObj.AtOffset(offset.Unknown)
			if whole.Len() > 0 {
				if dstObj.WriteAt(offset.Unknown, whole) {
					changed = true
				}
			}
		})
	})
	return changed
}

// semCallFuncPtr implements indirect calls: resolve the function-pointer
// operand's points-to set to a set of Function nodes and splice a call edge
// to each one whose bound subgraph's signature is compatible. It reports a
// change only for a callee not spliced before; it adds nothing to the paired
// CallReturn, and CallFuncPtr itself carries no points-to value of its own.
func (a *Analysis) semCallFuncPtr(n *PSNode) bool {
	fnPtr := a.Graph.Node(n.Operands()[0])
	args := n.Operands()[1:]
	changed := false
	fnPtr.PointsTo.Each(func(t dgraph.NodeID, _ offset.Offset) {
		tn := a.Graph.Node(t)
		if tn.Tag != Function {
			return
		}
		sgID, ok := a.Graph.FunctionSubgraph(t)
		if !ok {
			return
		}
		callee := a.Graph.Subgraph(sgID)
		if !a.signatureCompatible(n, callee, len(args)) {
			a.diagnose(SignatureMismatch, n.ID(), "call to n%d (%d args) does not match %s's signature", t, len(args), tn.FunctionAttrs().Name)
			return
		}
		for _, c := range n.CallAttrs().Callees {
			if c == sgID {
				return // already spliced
			}
		}
		a.Graph.RegisterCall(n.ID(), callee)
		changed = true
	})
	return changed
}

// signatureCompatible checks the indirect-call arity rule of spec §7 kind 5:
// the number of actual arguments must match the callee's formal parameter
// count.
func (a *Analysis) signatureCompatible(call *PSNode, callee *PointerSubgraph, numArgs int) bool {
	entry := a.Graph.Node(callee.Entry)
	if entry.Tag != Entry {
		return true // a subgraph without a recorded Entry attrs set imposes no check
	}
	return len(entry.EntryAttrs().Params) == numArgs
}

// semFree and the invalidation nodes are no-ops under every engine: Free and
// invalidation have no points-to effect of their own. The
// FS-with-invalidation engine applies their effect on memory inside its
// BeforeProcessed, before processNode reaches these.
func (a *Analysis) semFree(n *PSNode) bool             { return false }
func (a *Analysis) semInvalidateObject(n *PSNode) bool { return false }
func (a *Analysis) semInvalidateLocals(n *PSNode) bool { return false }
