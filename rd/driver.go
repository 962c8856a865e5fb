// driver.go implements the classic MOP (meet-over-all-paths) reaching-
// definitions fixpoint of spec §4.6: the same worklist shape as the
// pointer package's driver, specialised to RDMap merge instead of
// points-to union.
package rd

import (
	"github.com/go-logr/logr"

	"github.com/progslice/pdg/config"
	"github.com/progslice/pdg/dgraph"
	"github.com/progslice/pdg/offset"
)

// Analysis is one reaching-definitions run over a Graph.
type Analysis struct {
	Graph   *Graph
	Options config.Options
	Log     logr.Logger

	// SizeOf reports an allocation's total size, when known, for the
	// StrongUpdateUnknown merge parameter (spec §4.5 step 1b). Nil treats
	// every allocation's size as unknown.
	SizeOf func(target dgraph.NodeID) (offset.Offset, bool)

	// Unknown is a sentinel target standing in for "unknown memory" (spec
	// §4.6's "UNKNOWN_MEMORY"): external writes the analysis cannot
	// attribute to a specific allocation are recorded against it, and every
	// use conservatively unions its bucket in regardless of which
	// allocation it actually reads.
	Unknown dgraph.NodeID

	queued map[dgraph.NodeID]bool
	queue  []dgraph.NodeID
}

// NewAnalysis returns an Analysis ready to Run.
func NewAnalysis(graph *Graph, opts config.Options, unknown dgraph.NodeID, sizeOf func(dgraph.NodeID) (offset.Offset, bool), log logr.Logger) *Analysis {
	return &Analysis{
		Graph:   graph,
		Options: opts,
		Log:     log,
		SizeOf:  sizeOf,
		Unknown: unknown,
		queued:  make(map[dgraph.NodeID]bool),
	}
}

func (a *Analysis) enqueue(id dgraph.NodeID) {
	if a.queued[id] {
		return
	}
	a.queued[id] = true
	a.queue = append(a.queue, id)
}

func outgoingOf(n *Node) *Map {
	m, ok := n.UserData().(*Map)
	if !ok {
		m = NewMap()
		n.SetUserData(m)
	}
	return m
}

// Run drives the worklist to a fixpoint. At each node, its incoming map
// (Node.ReachingDefs) is the merge of every predecessor's outgoing map,
// killed by this node's own Overwrites (spec §4.6); the node's own Defines
// are then added weakly and Overwrites applied strongly to produce its
// outgoing map. Uses are never written by the fixpoint — getReachingDefinitions
// queries Node.ReachingDefs (the incoming map) directly, post-hoc.
func (a *Analysis) Run() {
	for _, id := range a.Graph.AllNodeIDs() {
		a.enqueue(id)
	}

	for len(a.queue) > 0 {
		id := a.queue[0]
		a.queue = a.queue[1:]
		delete(a.queued, id)

		if a.processNode(id) {
			n := a.Graph.Node(id)
			for _, s := range n.Successors() {
				a.enqueue(s)
			}
		}
	}
}

func (a *Analysis) processNode(id dgraph.NodeID) bool {
	n := a.Graph.Node(id)

	incoming := NewMap()
	params := MergeParams{
		NoUpdate:            n.Overwrites,
		StrongUpdateUnknown: a.Options.StrongUpdateUnknown,
		SizeOf:              a.SizeOf,
		MaxSetSize:          a.Options.MaxSetSize,
	}
	for _, pred := range n.Predecessors() {
		incoming.Merge(outgoingOf(a.Graph.Node(pred)), params)
	}
	n.ReachingDefs = incoming

	outgoing := incoming.Clone()
	for _, ds := range n.Defines {
		outgoing.Add(ds, id)
	}
	for _, ds := range n.Overwrites {
		outgoing.Update(ds, id)
	}

	prev := outgoingOf(n)
	changed := !outgoing.Equal(prev)
	n.SetUserData(outgoing)
	return changed
}

// GetReachingDefinitions implements spec §4.6's post-hoc use query: the
// reaching-def set for ds at n (n.ReachingDefs, the node's incoming map)
// unioned with the Unknown-memory bucket, since an unresolved external
// write is always a candidate reaching definition regardless of which
// allocation a use actually targets.
func (a *Analysis) GetReachingDefinitions(n *Node, ds DefSite) []dgraph.NodeID {
	result := newNodeSet()
	if s, ok := n.ReachingDefs.Get(ds); ok {
		result.union(s)
	}
	unknownDS := NewDefSite(a.Unknown, offset.Unknown, offset.Unknown)
	if s, ok := n.ReachingDefs.Get(unknownDS); ok {
		result.union(s)
	}
	return result.Ids()
}
