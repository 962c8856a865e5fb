package slicing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// buildLinearProgram: entry -> a -> b -> c, each its own block, a single
// data chain a -> b -> c plus control edges from entry to each.
func buildLinearProgram(g *Graph) (sg *Subgraph, entry, a, b, c NodeID) {
	entry = g.CreateNode()
	sg = g.CreateSubgraph(entry)
	entryBlock := g.CreateBlock(sg)
	g.AddNode(entryBlock, entry)

	a = g.CreateNode()
	blockA := g.CreateBlock(sg)
	g.AddNode(blockA, a)

	b = g.CreateNode()
	blockB := g.CreateBlock(sg)
	g.AddNode(blockB, b)

	c = g.CreateNode()
	blockC := g.CreateBlock(sg)
	g.AddNode(blockC, c)

	AddBlockEdge(entryBlock, blockA)
	AddBlockEdge(blockA, blockB)
	AddBlockEdge(blockB, blockC)
	AddControlParent(entryBlock, blockA)
	AddControlParent(entryBlock, blockB)
	AddControlParent(entryBlock, blockC)

	g.AddDataEdge(a, b)
	g.AddDataEdge(b, c)
	return
}

func TestMarkBackwardFollowsDataChainAndEntry(t *testing.T) {
	g := NewGraph()
	_, entry, a, b, c := buildLinearProgram(g)

	marked := Mark(g, []NodeID{c}, 1, Backward)

	assert.Contains(t, marked, c)
	assert.Contains(t, marked, b)
	assert.Contains(t, marked, a)
	assert.Contains(t, marked, entry, "the subgraph entry must survive so the function itself remains callable")
}

func TestMarkBackwardDoesNotMarkUnrelatedNode(t *testing.T) {
	g := NewGraph()
	sg, _, _, _, c := buildLinearProgram(g)
	unrelated := g.CreateNode()
	block := g.CreateBlock(sg)
	g.AddNode(block, unrelated)

	marked := Mark(g, []NodeID{c}, 1, Backward)

	assert.NotContains(t, marked, unrelated)
}

func TestSliceRemovesUnmarkedNodesAndBlocks(t *testing.T) {
	g := NewGraph()
	sg, entry, a, b, c := buildLinearProgram(g)
	unrelated := g.CreateNode()
	unrelatedBlock := g.CreateBlock(sg)
	g.AddNode(unrelatedBlock, unrelated)

	Mark(g, []NodeID{c}, 1, Backward)

	slicer := NewSlicer(g, nil)
	stats := slicer.Slice(sg, 1)

	assert.Positive(t, stats.NodesRemoved)
	assert.Positive(t, stats.BlocksRemoved)
	assert.Nil(t, g.Node(unrelated), "the unmarked node must be deleted")

	survivingIDs := map[NodeID]bool{}
	for _, b := range sg.Blocks {
		for _, id := range b.Nodes {
			survivingIDs[id] = true
		}
	}
	assert.True(t, survivingIDs[entry])
	assert.True(t, survivingIDs[a])
	assert.True(t, survivingIDs[b])
	assert.True(t, survivingIDs[c])
	assert.False(t, survivingIDs[unrelated])
}

func TestRemoveBlockHookVetoesRemoval(t *testing.T) {
	g := NewGraph()
	sg, _, _, _, c := buildLinearProgram(g)
	unrelated := g.CreateNode()
	unrelatedBlock := g.CreateBlock(sg)
	g.AddNode(unrelatedBlock, unrelated)

	Mark(g, []NodeID{c}, 1, Backward)

	slicer := NewSlicer(g, nil)
	slicer.RemoveBlock = func(b *Block) bool { return b == unrelatedBlock }
	stats := slicer.Slice(sg, 1)

	assert.Zero(t, stats.BlocksRemoved)
	assert.NotNil(t, g.Node(unrelated), "a vetoed block's nodes must survive")
}

func TestForwardMarkRecoversControlDependence(t *testing.T) {
	g := NewGraph()
	_, entry, a, b, c := buildLinearProgram(g)

	marked := Mark(g, []NodeID{a}, 1, Forward)

	assert.Contains(t, marked, a)
	assert.Contains(t, marked, b)
	assert.Contains(t, marked, c)
	assert.Contains(t, marked, entry, "the backward recovery pass must pull in the controlling entry block")
}
