// Package slicing implements the program-dependence-graph walk-and-mark
// (spec §4.7) and the slicer that acts on its result (spec §4.8, §6.3). It
// operates on its own small node/block abstraction rather than directly on
// pointer.PSNode or rd.Node: a PDG node's defining feature is that it
// carries several independently-traversable dependence-edge classes (data,
// control, use-def, interference) at once, which the pointer and RD graphs
// don't need individually — they are the two analyses a front-end
// combines to produce these edges in the first place.
package slicing

import "github.com/progslice/pdg/dgraph"

// NodeID identifies a node within a Graph. Id 0 is the sentinel, matching
// dgraph.NodeID's convention. It is an alias of dgraph.NodeID, not a
// distinct type, although a slicing Graph is never the same graph as a
// pointer.PointerGraph or rd.Graph.
type NodeID = dgraph.NodeID

// SubgraphID identifies one function's slice of the dependence graph.
type SubgraphID int

// Node is one PDG node: an id, a basic-block back-pointer, and four
// dependence-edge classes plus their reverses, per spec §4.7's edge-class
// vocabulary (rev_data, rev_control, use->user, rev_interference for
// backward mode; data, use, id for forward mode — "id" here means operand
// identity/def-use, tracked the same underlying list as Uses/UsedBy).
type Node struct {
	id    NodeID
	Block *Block

	// SliceID is the slice tag mark assigns (spec §4.7); a node survives
	// slicing iff its SliceID equals the criterion's current slice id.
	SliceID uint64

	dataSucc, dataPred             []NodeID
	controlSucc, controlPred       []NodeID
	uses, usedBy                   []NodeID // "uses" = the defs this node reads; "usedBy" = the reverse (use->user)
	interferenceSucc, interferencePred []NodeID
}

// ID returns the node's id.
func (n *Node) ID() NodeID { return n.id }

// DataSuccessors returns nodes this node's value flows into (forward data
// edges).
func (n *Node) DataSuccessors() []NodeID { return n.dataSucc }

// DataPredecessors returns nodes whose value flows into this node
// (rev_data).
func (n *Node) DataPredecessors() []NodeID { return n.dataPred }

// ControlSuccessors returns nodes whose execution this node's branch
// controls.
func (n *Node) ControlSuccessors() []NodeID { return n.controlSucc }

// ControlPredecessors returns the branch nodes controlling this node's
// execution (rev_control).
func (n *Node) ControlPredecessors() []NodeID { return n.controlPred }

// Uses returns the definitions this node reads (the "id"/def-use edge in
// forward mode).
func (n *Node) Uses() []NodeID { return n.uses }

// UsedBy returns the nodes that read this node's definition (use->user, the
// edge backward mode follows).
func (n *Node) UsedBy() []NodeID { return n.usedBy }

// InterferenceSuccessors returns nodes synchronized after this one across a
// fork/join pair (spec §5's concurrency modelling construct).
func (n *Node) InterferenceSuccessors() []NodeID { return n.interferenceSucc }

// InterferencePredecessors returns the reverse of InterferenceSuccessors
// (rev_interference).
func (n *Node) InterferencePredecessors() []NodeID { return n.interferencePred }

// Block is a contiguous run of PDG nodes belonging to one subgraph.
// ControlParents are the blocks whose last node control-depends into this
// block — what spec §4.7's backward walk enqueues when a node inside this
// block is marked ("enqueue the block's control parents' last nodes").
type Block struct {
	id       int
	Subgraph SubgraphID
	Nodes    []NodeID

	Preds, Succs   []*Block
	ControlParents []*Block

	SliceID uint64
}

// ID returns the block's id.
func (b *Block) ID() int { return b.id }

// Subgraph is one function's slice of the dependence graph: its entry node
// (spec §4.7's "enqueue its dependence graph's entry node, so the function
// survives") and the blocks belonging to it.
type Subgraph struct {
	ID     SubgraphID
	Entry  NodeID
	Blocks []*Block
}

// Graph owns every Node, Block and Subgraph in one dependence graph.
type Graph struct {
	nodes     []*Node // nodes[0] always nil: id 0 is the sentinel
	blocks    []*Block
	subgraphs []*Subgraph
}

// NewGraph returns an empty dependence graph.
func NewGraph() *Graph {
	return &Graph{nodes: []*Node{nil}}
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) *Node {
	return g.nodes[id]
}

// AllNodeIDs returns every valid node id in ascending order.
func (g *Graph) AllNodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(g.nodes)-1)
	for i := 1; i < len(g.nodes); i++ {
		if g.nodes[i] != nil {
			ids = append(ids, NodeID(i))
		}
	}
	return ids
}

// CreateNode creates a fresh node with no edges yet, not yet attached to any
// block.
func (g *Graph) CreateNode() NodeID {
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, &Node{id: id})
	return id
}

// CreateBlock creates and registers a new, empty block owned by sg.
func (g *Graph) CreateBlock(sg *Subgraph) *Block {
	b := &Block{id: len(g.blocks), Subgraph: sg.ID}
	g.blocks = append(g.blocks, b)
	sg.Blocks = append(sg.Blocks, b)
	return b
}

// CreateSubgraph creates and registers a new, initially block-less
// subgraph rooted at entry.
func (g *Graph) CreateSubgraph(entry NodeID) *Subgraph {
	sg := &Subgraph{ID: SubgraphID(len(g.subgraphs) + 1), Entry: entry}
	g.subgraphs = append(g.subgraphs, sg)
	return sg
}

// Subgraphs returns every subgraph, in creation order.
func (g *Graph) Subgraphs() []*Subgraph { return g.subgraphs }

// Blocks returns every block, in creation order.
func (g *Graph) Blocks() []*Block { return g.blocks }

// AddNode appends node to block's instruction sequence and records the
// block back-pointer.
func (g *Graph) AddNode(block *Block, id NodeID) {
	block.Nodes = append(block.Nodes, id)
	g.Node(id).Block = block
}

// AddDataEdge records a data-dependence edge from producer to consumer.
func (g *Graph) AddDataEdge(producer, consumer NodeID) {
	g.Node(producer).dataSucc = append(g.Node(producer).dataSucc, consumer)
	g.Node(consumer).dataPred = append(g.Node(consumer).dataPred, producer)
}

// AddControlEdge records a control-dependence edge from branch to
// dependent.
func (g *Graph) AddControlEdge(branch, dependent NodeID) {
	g.Node(branch).controlSucc = append(g.Node(branch).controlSucc, dependent)
	g.Node(dependent).controlPred = append(g.Node(dependent).controlPred, branch)
}

// AddUseEdge records that user reads def's value.
func (g *Graph) AddUseEdge(def, user NodeID) {
	g.Node(user).uses = append(g.Node(user).uses, def)
	g.Node(def).usedBy = append(g.Node(def).usedBy, user)
}

// AddInterferenceEdge records a fork/join synchronization edge from before
// to after.
func (g *Graph) AddInterferenceEdge(before, after NodeID) {
	g.Node(before).interferenceSucc = append(g.Node(before).interferenceSucc, after)
	g.Node(after).interferencePred = append(g.Node(after).interferencePred, before)
}

// AddBlockEdge links from as a structural predecessor of to (used by the
// slicer to patch surviving blocks' predecessor/successor lists when a
// block in between is removed).
func AddBlockEdge(from, to *Block) {
	from.Succs = append(from.Succs, to)
	to.Preds = append(to.Preds, from)
}

// AddControlParent records that parent's last node control-depends into
// every node of child — the edge spec §4.7's backward walk follows when a
// node inside child is marked.
func AddControlParent(parent, child *Block) {
	child.ControlParents = append(child.ControlParents, parent)
}
