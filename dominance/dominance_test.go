package dominance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/progslice/pdg/rd"
)

// buildDiamond returns a four-block diamond CFG: entry -> {left, right} -> join.
func buildDiamond(g *rd.Graph) (entry, left, right, join *rd.BasicBlock) {
	entry = g.CreateBlock()
	left = g.CreateBlock()
	right = g.CreateBlock()
	join = g.CreateBlock()
	rd.AddBlockEdge(entry, left)
	rd.AddBlockEdge(entry, right)
	rd.AddBlockEdge(left, join)
	rd.AddBlockEdge(right, join)
	return
}

func TestImmediateDominators(t *testing.T) {
	g := rd.NewGraph()
	entry, left, right, join := buildDiamond(g)

	tree := Compute(entry)

	assert.Nil(t, tree.IDom(entry))
	assert.Equal(t, entry, tree.IDom(left))
	assert.Equal(t, entry, tree.IDom(right))
	assert.Equal(t, entry, tree.IDom(join), "join's idom is entry: neither branch alone dominates it")
}

func TestDominates(t *testing.T) {
	g := rd.NewGraph()
	entry, left, _, join := buildDiamond(g)

	tree := Compute(entry)

	assert.True(t, tree.Dominates(entry, join))
	assert.True(t, tree.Dominates(entry, left))
	assert.False(t, tree.Dominates(left, join), "left alone doesn't dominate join: right also reaches it")
	assert.True(t, tree.Dominates(left, left))
}

func TestDominanceFrontierOfDiamondBranches(t *testing.T) {
	g := rd.NewGraph()
	_, left, right, join := buildDiamond(g)
	entry := g.Blocks()[0]

	tree := Compute(entry)
	df := tree.Frontier()

	assert.Equal(t, []*rd.BasicBlock{join}, df[left])
	assert.Equal(t, []*rd.BasicBlock{join}, df[right])
}

func TestLinearChainHasEmptyFrontier(t *testing.T) {
	g := rd.NewGraph()
	a := g.CreateBlock()
	b := g.CreateBlock()
	c := g.CreateBlock()
	rd.AddBlockEdge(a, b)
	rd.AddBlockEdge(b, c)

	tree := Compute(a)
	df := tree.Frontier()

	assert.Empty(t, df[a])
	assert.Empty(t, df[b])
}
