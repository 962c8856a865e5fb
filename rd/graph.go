package rd

import (
	"fmt"

	"github.com/progslice/pdg/dgraph"
)

// Graph owns every Node and BasicBlock in one reaching-definitions run, the
// RD-graph analogue of pointer.PointerGraph. A graph is never shared
// between analyses.
type Graph struct {
	nodes  []*Node // nodes[0] is always nil: id 0 is the sentinel
	blocks []*BasicBlock
}

// NewGraph returns an empty reaching-definitions graph.
func NewGraph() *Graph {
	return &Graph{nodes: []*Node{nil}}
}

// Node returns the node with the given id. Panics on an invalid id, a
// graph-internal invariant rather than a recoverable analysis condition.
func (g *Graph) Node(id dgraph.NodeID) *Node {
	if id == dgraph.Sentinel || int(id) >= len(g.nodes) || g.nodes[id] == nil {
		panic(fmt.Sprintf("rd: invalid node id n%d", id))
	}
	return g.nodes[id]
}

// AllNodeIDs returns every valid node id, in ascending order.
func (g *Graph) AllNodeIDs() []dgraph.NodeID {
	ids := make([]dgraph.NodeID, 0, len(g.nodes)-1)
	for i := 1; i < len(g.nodes); i++ {
		if g.nodes[i] != nil {
			ids = append(ids, dgraph.NodeID(i))
		}
	}
	return ids
}

func (g *Graph) createNode(tag Tag) dgraph.NodeID {
	id := dgraph.NodeID(len(g.nodes))
	g.nodes = append(g.nodes, newNode(id, tag))
	return id
}

// CreateBlock creates and registers a new, initially-unsealed basic block.
func (g *Graph) CreateBlock() *BasicBlock {
	b := newBasicBlock(len(g.blocks))
	g.blocks = append(g.blocks, b)
	return b
}

// Blocks returns every basic block in creation order.
func (g *Graph) Blocks() []*BasicBlock { return g.blocks }

// CreateAlloc creates an Alloc RDNode inside block.
func (g *Graph) CreateAlloc(block *BasicBlock) dgraph.NodeID {
	id := g.createNode(Alloc)
	block.addNode(g, id)
	return id
}

// CreateDynAlloc creates a DynAlloc RDNode (a heap/runtime allocation site)
// inside block.
func (g *Graph) CreateDynAlloc(block *BasicBlock) dgraph.NodeID {
	id := g.createNode(DynAlloc)
	block.addNode(g, id)
	return id
}

// CreateStore creates a Store RDNode inside block. Callers attach defs via
// AddDefine (weak) or AddOverwrite (strong) afterward, per spec §3.3 — a
// single store instruction may contribute to either set depending on
// whether its address is precisely known.
func (g *Graph) CreateStore(block *BasicBlock) dgraph.NodeID {
	id := g.createNode(Store)
	block.addNode(g, id)
	return id
}

// CreateLoad creates a Load RDNode inside block.
func (g *Graph) CreateLoad(block *BasicBlock) dgraph.NodeID {
	id := g.createNode(Load)
	block.addNode(g, id)
	return id
}

// CreatePhi creates a Phi RDNode inside block, with the given operand
// nodes (the values merging at this control-flow join).
func (g *Graph) CreatePhi(block *BasicBlock, operands ...dgraph.NodeID) dgraph.NodeID {
	id := g.createNode(Phi)
	n := g.Node(id)
	for _, op := range operands {
		dgraph.AddOperand(&n.Base, &g.Node(op).Base)
	}
	block.addNode(g, id)
	return id
}

// CreateCall creates a Call RDNode inside block.
func (g *Graph) CreateCall(block *BasicBlock) dgraph.NodeID {
	id := g.createNode(Call)
	block.addNode(g, id)
	return id
}

// CreateCallReturn creates a CallReturn RDNode inside block.
func (g *Graph) CreateCallReturn(block *BasicBlock) dgraph.NodeID {
	id := g.createNode(CallReturn)
	block.addNode(g, id)
	return id
}

// CreateFork creates a Fork RDNode inside block.
func (g *Graph) CreateFork(block *BasicBlock) dgraph.NodeID {
	id := g.createNode(Fork)
	block.addNode(g, id)
	return id
}

// CreateJoin creates a Join RDNode inside block.
func (g *Graph) CreateJoin(block *BasicBlock) dgraph.NodeID {
	id := g.createNode(Join)
	block.addNode(g, id)
	return id
}

// CreateReturn creates a Return RDNode inside block.
func (g *Graph) CreateReturn(block *BasicBlock) dgraph.NodeID {
	id := g.createNode(Return)
	block.addNode(g, id)
	return id
}

// CreateNoop creates a Noop RDNode inside block (CFG scaffolding, e.g. a
// block's synthetic entry instruction).
func (g *Graph) CreateNoop(block *BasicBlock) dgraph.NodeID {
	id := g.createNode(Noop)
	block.addNode(g, id)
	return id
}

// AddSuccessor adds a control-flow edge between two nodes in the same or
// adjacent blocks (the intra-block threading the fixpoint driver walks node
// by node).
func (g *Graph) AddSuccessor(from, to dgraph.NodeID) {
	dgraph.AddEdge(&g.Node(from).Base, &g.Node(to).Base)
}
