package pointer

import "github.com/progslice/pdg/dgraph"

// SubgraphID identifies a PointerSubgraph within a PointerGraph. Id 0 is
// reserved, matching dgraph.Sentinel's convention for node ids.
type SubgraphID uint64

// PointerSubgraph is the per-procedure slice of the pointer graph (spec
// §3.2): a unique entry node, one or more return nodes, and an optional
// vararg-gather node collecting extra variadic arguments.
type PointerSubgraph struct {
	ID           SubgraphID
	Entry        dgraph.NodeID
	Returns      []dgraph.NodeID
	VarargGather dgraph.NodeID // dgraph.Sentinel if the procedure has no variadic parameter
}
