package rd

import (
	"github.com/progslice/pdg/dgraph"
	"github.com/progslice/pdg/offset"
)

// BasicBlock is a contiguous run of RDNodes (spec §3.3). Definitions is the
// SSA-variant's per-target sidecar (spec §4.6.1): for each allocation
// target touched inside this block, an IntervalMap recording the
// most-recent strong definition covering each byte range.
type BasicBlock struct {
	ID    int
	Nodes []dgraph.NodeID

	Preds []*BasicBlock
	Succs []*BasicBlock

	Definitions map[dgraph.NodeID]*offset.IntervalMap[dgraph.NodeID]

	// sealed marks a block whose predecessor list is final — standard SSA
	// construction terminology (Braun et al.): a block is sealed once no
	// further predecessors can be added. The flag is recorded for callers;
	// the SRG builder in ssa.go does not consult it.
	sealed bool
}

func newBasicBlock(id int) *BasicBlock {
	return &BasicBlock{
		ID:          id,
		Definitions: make(map[dgraph.NodeID]*offset.IntervalMap[dgraph.NodeID]),
	}
}

func (b *BasicBlock) definitionsFor(target dgraph.NodeID) *offset.IntervalMap[dgraph.NodeID] {
	im, ok := b.Definitions[target]
	if !ok {
		im = offset.NewIntervalMap[dgraph.NodeID]()
		b.Definitions[target] = im
	}
	return im
}

// addNode appends node to the block's instruction sequence and records the
// block back-pointer on the node.
func (b *BasicBlock) addNode(g *Graph, id dgraph.NodeID) {
	b.Nodes = append(b.Nodes, id)
	g.Node(id).Block = b
}

// Seal marks the block as having its final predecessor list. Nothing in
// this package reads the flag back except Sealed.
func (b *BasicBlock) Seal() { b.sealed = true }

// Sealed reports whether Seal has been called.
func (b *BasicBlock) Sealed() bool { return b.sealed }

// AddBlockEdge links from as a control-flow predecessor of to (and to as
// from's successor).
func AddBlockEdge(from, to *BasicBlock) {
	from.Succs = append(from.Succs, to)
	to.Preds = append(to.Preds, from)
}
