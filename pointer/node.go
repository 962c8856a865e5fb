// Package pointer implements the pointer graph (spec §3.2) and the three
// pointer-analysis engines that compute a fixpoint over it (spec §4.2–§4.4).
// Allocations are opaque identities here — unlike the teacher
// (golang.org/x/tools/go/pointer), this package never reasons about a
// source language's type system; a front-end builder is responsible for
// deciding node shape and wiring operands (spec §1's "front-end … an
// external builder").
package pointer

import (
	"fmt"

	"github.com/progslice/pdg/dgraph"
	"github.com/progslice/pdg/offset"
	"github.com/progslice/pdg/ptset"
)

// Tag identifies a PSNode variant, per spec §3.2's node variant table.
type Tag int

const (
	Alloc Tag = iota
	Load
	Store
	Gep
	Phi
	Cast
	Function
	Call
	CallFuncPtr
	CallReturn
	Entry
	Return
	Fork
	Join
	InvalidateLocals
	Free
	InvalidateObject
	Constant
	Noop
	Memcpy
	NullAddr
	UnknownMem
	Invalidated
)

func (t Tag) String() string {
	switch t {
	case Alloc:
		return "Alloc"
	case Load:
		return "Load"
	case Store:
		return "Store"
	case Gep:
		return "Gep"
	case Phi:
		return "Phi"
	case Cast:
		return "Cast"
	case Function:
		return "Function"
	case Call:
		return "Call"
	case CallFuncPtr:
		return "CallFuncPtr"
	case CallReturn:
		return "CallReturn"
	case Entry:
		return "Entry"
	case Return:
		return "Return"
	case Fork:
		return "Fork"
	case Join:
		return "Join"
	case InvalidateLocals:
		return "InvalidateLocals"
	case Free:
		return "Free"
	case InvalidateObject:
		return "InvalidateObject"
	case Constant:
		return "Constant"
	case Noop:
		return "Noop"
	case Memcpy:
		return "Memcpy"
	case NullAddr:
		return "NullAddr"
	case UnknownMem:
		return "UnknownMem"
	case Invalidated:
		return "Invalidated"
	default:
		return fmt.Sprintf("Tag(%d)", int(t))
	}
}

// AllocAttrs holds the extra attributes of an Alloc node (spec §3.2).
type AllocAttrs struct {
	Heap            bool
	Global          bool
	ZeroInitialized bool
	Temporary       bool
	Size            offset.Offset
}

// GepAttrs holds a Gep node's constant offset operand.
type GepAttrs struct {
	Offset offset.Offset

	// Coarsened is set by the flow-insensitive engine's SCC-GEP
	// preprocessing pass (spec §4.2) for a Gep inside a loop: every
	// resulting offset is forced to Unknown rather than computed, since the
	// fixpoint would widen it there eventually regardless.
	Coarsened bool
}

// MemcpyAttrs holds a Memcpy node's length operand.
type MemcpyAttrs struct {
	Length offset.Offset
}

// EntryAttrs holds an Entry node's function name and the call sites known
// to call into it.
type EntryAttrs struct {
	FuncName string
	Callers  []dgraph.NodeID
	// Params are the formal parameter nodes, in order — compared against a
	// CallFuncPtr's argument count when checking indirect-call signature
	// compatibility (spec §7 kind 5).
	Params []dgraph.NodeID
}

// FunctionAttrs holds a Function node's name — the identity a CallFuncPtr's
// points-to set resolves against when matching indirect-call signatures.
type FunctionAttrs struct {
	Name string
}

// CallAttrs holds a Call/CallFuncPtr node's resolved callee subgraphs.
type CallAttrs struct {
	Callees []SubgraphID
}

// ForkJoinAttrs links a Fork node to its Join (and vice versa): spec §3.2's
// "a linked pair of participating functions".
type ForkJoinAttrs struct {
	Partner dgraph.NodeID
}

// PSNode is a single pointer-graph node: the shared skeleton from dgraph.Base
// plus the tag and whatever variant-specific attributes that tag carries.
type PSNode struct {
	dgraph.Base

	Tag    Tag
	Parent SubgraphID // 0 if not (yet) owned by any subgraph
	Paired dgraph.NodeID // Call<->CallReturn pairing (spec §3.2 invariant)
	Size   offset.Offset // memory size, for Alloc/Function nodes

	PointsTo *ptset.Set[dgraph.NodeID]

	extra any // one of *AllocAttrs, *GepAttrs, *MemcpyAttrs, *EntryAttrs, *FunctionAttrs, *CallAttrs, *ForkJoinAttrs, or nil
}

func newPSNode(id dgraph.NodeID, tag Tag) *PSNode {
	return &PSNode{
		Base:     dgraph.NewBase(id),
		Tag:      tag,
		PointsTo: ptset.New[dgraph.NodeID](),
	}
}

// AllocAttrs returns the node's allocation attributes. Panics if the node's
// tag is not Alloc — a construction-time contract violation, per spec §7
// kind 3.
func (n *PSNode) AllocAttrs() *AllocAttrs {
	a, ok := n.extra.(*AllocAttrs)
	if !ok {
		panic(fmt.Sprintf("n%d: AllocAttrs on a %s node", n.ID(), n.Tag))
	}
	return a
}

// GepAttrs returns the node's Gep offset attributes.
func (n *PSNode) GepAttrs() *GepAttrs {
	a, ok := n.extra.(*GepAttrs)
	if !ok {
		panic(fmt.Sprintf("n%d: GepAttrs on a %s node", n.ID(), n.Tag))
	}
	return a
}

// MemcpyAttrs returns the node's Memcpy length attributes.
func (n *PSNode) MemcpyAttrs() *MemcpyAttrs {
	a, ok := n.extra.(*MemcpyAttrs)
	if !ok {
		panic(fmt.Sprintf("n%d: MemcpyAttrs on a %s node", n.ID(), n.Tag))
	}
	return a
}

// EntryAttrs returns the node's Entry attributes.
func (n *PSNode) EntryAttrs() *EntryAttrs {
	a, ok := n.extra.(*EntryAttrs)
	if !ok {
		panic(fmt.Sprintf("n%d: EntryAttrs on a %s node", n.ID(), n.Tag))
	}
	return a
}

// CallAttrs returns the node's Call/CallFuncPtr attributes.
func (n *PSNode) CallAttrs() *CallAttrs {
	a, ok := n.extra.(*CallAttrs)
	if !ok {
		panic(fmt.Sprintf("n%d: CallAttrs on a %s node", n.ID(), n.Tag))
	}
	return a
}

// FunctionAttrs returns the node's function-identity attributes.
func (n *PSNode) FunctionAttrs() *FunctionAttrs {
	a, ok := n.extra.(*FunctionAttrs)
	if !ok {
		panic(fmt.Sprintf("n%d: FunctionAttrs on a %s node", n.ID(), n.Tag))
	}
	return a
}

// ForkJoinAttrs returns the node's Fork/Join partner attributes.
func (n *PSNode) ForkJoinAttrs() *ForkJoinAttrs {
	a, ok := n.extra.(*ForkJoinAttrs)
	if !ok {
		panic(fmt.Sprintf("n%d: ForkJoinAttrs on a %s node", n.ID(), n.Tag))
	}
	return a
}

// IsDereferenceable reports whether n can be the target end of a load/store,
// per the glossary's "Dereferenceable pointer": not null, not unknown, not
// invalidated, and not a Function (calling through a data pointer is a
// CallFuncPtr, never a Load/Store).
func (n *PSNode) IsDereferenceable() bool {
	switch n.Tag {
	case NullAddr, UnknownMem, Invalidated, Function:
		return false
	default:
		return true
	}
}
