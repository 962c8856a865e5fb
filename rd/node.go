// Package rd implements the reaching-definitions graph (spec §3.3), its
// DefSite/RDMap primitives (spec §4.5), and the two RD analysis flavours
// named in spec §4.6/§4.6.1: a classic MOP worklist fixpoint and an
// SSA-form marker-SRG builder. It mirrors the pointer package's structuring
// decisions — a dgraph.Base-backed node with a tag, and a flat
// id-addressed graph owning every node — since spec §9 calls for RDNode and
// PSNode to share the same node skeleton.
package rd

import (
	"fmt"

	"github.com/progslice/pdg/dgraph"
	"github.com/progslice/pdg/offset"
)

// Tag identifies an RDNode variant (spec §3.3).
type Tag int

const (
	Alloc Tag = iota
	DynAlloc
	Store
	Load
	Phi
	Call
	CallReturn
	Fork
	Join
	Return
	Noop
)

func (t Tag) String() string {
	switch t {
	case Alloc:
		return "Alloc"
	case DynAlloc:
		return "DynAlloc"
	case Store:
		return "Store"
	case Load:
		return "Load"
	case Phi:
		return "Phi"
	case Call:
		return "Call"
	case CallReturn:
		return "CallReturn"
	case Fork:
		return "Fork"
	case Join:
		return "Join"
	case Return:
		return "Return"
	case Noop:
		return "Noop"
	default:
		return fmt.Sprintf("Tag(%d)", int(t))
	}
}

// DefSite identifies a write: the allocation it targets, a byte offset, and
// a byte length — either of which may be offset.Unknown (spec §3.3).
type DefSite struct {
	Target dgraph.NodeID
	Offset offset.Offset
	Length offset.Offset
}

// NewDefSite builds a DefSite over the half-open-by-length byte range
// [off, off+length) of target.
func NewDefSite(target dgraph.NodeID, off, length offset.Offset) DefSite {
	return DefSite{Target: target, Offset: off, Length: length}
}

// Interval returns ds's byte range as an offset.Interval, for overlap and
// containment queries against other DefSites on the same target.
func (ds DefSite) Interval() offset.Interval {
	return offset.NewInterval(ds.Offset, ds.Length)
}

// IsUnknown reports whether ds carries no precise byte range.
func (ds DefSite) IsUnknown() bool {
	return ds.Interval().IsUnknown()
}

func (ds DefSite) String() string {
	return fmt.Sprintf("n%d%s", ds.Target, ds.Interval())
}

// Node is one reaching-definitions graph node: the shared dgraph.Base
// skeleton, a tag, and the three DefSite sets of spec §3.3 — Defines
// (weak), Overwrites (strong), and Uses — plus the reaching-definitions map
// populated by the fixpoint (spec §4.6).
type Node struct {
	dgraph.Base

	Tag   Tag
	Block *BasicBlock

	// Defines are weakly-updated DefSites: this node's write unions into
	// whatever already reaches it, rather than replacing it.
	Defines []DefSite

	// Overwrites are strongly-updated DefSites: this node's write is
	// precisely known to replace every prior reaching definition over the
	// covered range (spec glossary "Strong update").
	Overwrites []DefSite

	// Uses are DefSites this node reads; getReachingDefinitions(use) (spec
	// §4.6) queries ReachingDefs for each.
	Uses []DefSite

	// ReachingDefs is this node's incoming reaching-definitions map, filled
	// in by the fixpoint driver: for every DefSite reaching this program
	// point, the set of RDNode ids that may have produced it.
	ReachingDefs *Map
}

func newNode(id dgraph.NodeID, tag Tag) *Node {
	return &Node{
		Base:         dgraph.NewBase(id),
		Tag:          tag,
		ReachingDefs: NewMap(),
	}
}

// AddDefine records ds as one of n's weak definitions.
func (n *Node) AddDefine(ds DefSite) { n.Defines = append(n.Defines, ds) }

// AddOverwrite records ds as one of n's strong definitions.
func (n *Node) AddOverwrite(ds DefSite) { n.Overwrites = append(n.Overwrites, ds) }

// AddUse records ds as one of n's uses.
func (n *Node) AddUse(ds DefSite) { n.Uses = append(n.Uses, ds) }
