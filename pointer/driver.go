// Package pointer's driver implements the generic worklist fixpoint of spec
// §4.2, shared by all three engines: only MemoryResolver differs between
// them (design note §9), matching the teacher's pattern of one driver struct
// owning the worklist, node table and scratch data while a type switch (here
// a tag switch) handles each node kind.
package pointer

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/progslice/pdg/config"
	"github.com/progslice/pdg/dgraph"
)

// Analysis is one pointer-analysis run: the graph being analyzed, the
// configuration it was built with, the engine variant (via MemoryResolver),
// and the diagnostics accumulated along the way.
type Analysis struct {
	Graph    *PointerGraph
	Options  config.Options
	Resolver MemoryResolver
	Log      logr.Logger

	Diagnostics []Diagnostic

	queued map[dgraph.NodeID]bool
	queue  []dgraph.NodeID
	scc    *dgraph.SCCResult
}

// sccResult returns the graph's cached SCC decomposition over control-flow
// edges, computing it on first use. The FS-with-invalidation engine uses
// this for its "is this node on a loop" check (spec §4.3); preprocessGeps
// shares the same computation when both run.
func (a *Analysis) sccResult() *dgraph.SCCResult {
	if a.scc == nil {
		a.scc = dgraph.TarjanSCC(a.Graph.AllNodeIDs(), func(id dgraph.NodeID) []dgraph.NodeID {
			return a.Graph.Node(id).Successors()
		})
	}
	return a.scc
}

// nodeInLoop reports whether id's control-flow position is part of a cycle.
func (a *Analysis) nodeInLoop(id dgraph.NodeID) bool {
	n := a.Graph.Node(id)
	selfLoop := false
	for _, s := range n.Successors() {
		if s == id {
			selfLoop = true
			break
		}
	}
	return a.sccResult().InLoop(id, selfLoop)
}

// NewAnalysis returns an Analysis ready to Run. resolver selects the engine
// variant (see engine_fi.go, engine_fs.go, engine_fsinv.go). Panics if
// PreprocessGeps is requested together with a flow-sensitive resolver
// (config.Options' own documented contract): SCC-GEP coarsening assumes a
// single graph-wide memory state, which a flow-sensitive engine does not
// have.
func NewAnalysis(graph *PointerGraph, opts config.Options, resolver MemoryResolver, log logr.Logger) *Analysis {
	if opts.PreprocessGeps {
		switch resolver.(type) {
		case *FlowSensitiveEngine, *FSInvEngine:
			panic(fmt.Sprintf("pointer: PreprocessGeps is incompatible with %T", resolver))
		}
	}
	// Parent is only set on Entry/Return nodes at construction time; fill in
	// every other node's owning subgraph now that construction is done, so
	// FSInvEngine's local-invalidation check (spec §4.3) has it available.
	graph.AssignParents()
	return &Analysis{
		Graph:    graph,
		Options:  opts,
		Resolver: resolver,
		Log:      log,
		queued:   make(map[dgraph.NodeID]bool),
	}
}

func (a *Analysis) enqueue(id dgraph.NodeID) {
	if a.queued[id] {
		return
	}
	a.queued[id] = true
	a.queue = append(a.queue, id)
}

// Run drives the worklist to a fixpoint. It seeds the queue with every node
// (in ascending id order, a stable and cheap approximation of program
// order), then repeatedly pops a node, applies its transfer function, and —
// if anything changed — re-enqueues its use-def users (whose points-to
// reads this node's) and its control-flow successors (whose memory map or,
// for the flow-sensitive engines, merged predecessor state depends on this
// node having run).
func (a *Analysis) Run() {
	if a.Options.PreprocessGeps {
		a.preprocessGeps()
	}

	for _, id := range a.Graph.AllNodeIDs() {
		a.enqueue(id)
	}

	for len(a.queue) > 0 {
		id := a.queue[0]
		a.queue = a.queue[1:]
		delete(a.queued, id)

		if processNode(a, id) {
			n := a.Graph.Node(id)
			for _, u := range n.Users() {
				a.enqueue(u)
			}
			for _, s := range n.Successors() {
				a.enqueue(s)
			}
		}
	}
}

// preprocessGeps implements the flow-insensitive engine's optional SCC-GEP
// coarsening (spec §4.2): a Gep node whose control-flow position lies in a
// non-trivial strongly connected component is re-executed on every fixpoint
// round the loop iterates anyway, so forcing its offset to Unknown up front
// removes rounds of field-sensitive churn the loop will eventually widen to
// Unknown regardless. Never called for flow-sensitive engines — a Gep's
// result there also depends on per-point memory state, which preprocessing
// cannot safely anticipate.
func (a *Analysis) preprocessGeps() {
	for _, id := range a.Graph.AllNodeIDs() {
		n := a.Graph.Node(id)
		if n.Tag != Gep {
			continue
		}
		if a.nodeInLoop(id) {
			n.GepAttrs().Coarsened = true
		}
	}
}
