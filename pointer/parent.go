package pointer

import "github.com/progslice/pdg/dgraph"

// AssignParents populates every node's Parent field by walking each
// subgraph's control-flow graph outward from its own Entry (spec §3.2:
// "every node reachable from a subgraph entry has parent set to that
// subgraph"). CreateSubgraph and AddReturn only ever set Parent on the Entry
// and Return nodes directly; everything else needs this pass, which runs
// once construction is complete, before anything relies on Parent (e.g.
// FSInvEngine's local invalidation, spec §4.3).
//
// The walk treats a Return node as terminal: its only further successor is
// a splice into the caller's CallReturn, added by RegisterCall, which
// belongs to a different subgraph. Symmetrically, it never crosses into a
// foreign Entry node reached via a Call/CallFuncPtr's resolved-callee
// successor edges — a call site's own CallReturn is instead reached
// directly through its Paired link, bypassing the callee entirely.
func (g *PointerGraph) AssignParents() {
	for _, sg := range g.subgraphs {
		g.assignParentsFrom(sg)
	}
}

func (g *PointerGraph) assignParentsFrom(sg *PointerSubgraph) {
	visited := make(map[dgraph.NodeID]bool)
	stack := []dgraph.NodeID{sg.Entry}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true

		n := g.Node(id)
		if n.Parent == 0 {
			n.Parent = sg.ID
		}

		if n.Tag == Return {
			continue // further successors cross into the caller, not this subgraph
		}

		for _, s := range n.Successors() {
			if g.Node(s).Tag == Entry {
				continue // a foreign subgraph's own entry: it owns itself
			}
			stack = append(stack, s)
		}

		if (n.Tag == Call || n.Tag == CallFuncPtr) && n.Paired != dgraph.Sentinel {
			stack = append(stack, n.Paired)
		}
	}
}
