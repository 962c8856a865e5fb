package rd

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"

	"github.com/progslice/pdg/config"
	"github.com/progslice/pdg/dgraph"
	"github.com/progslice/pdg/offset"
)

func newTestLogger() logr.Logger { return logr.Discard() }

// TestMOPStrongKillDropsEarlierDefinition builds A = alloc; S1 overwrites
// A[0,8); S2 overwrites A[0,8) again; L uses A[0,8). Reaching L should be
// only S2, since S2's strong update kills S1's reaching definition.
func TestMOPStrongKillDropsEarlierDefinition(t *testing.T) {
	g := NewGraph()
	unknown := g.createNode(Noop)
	b := g.CreateBlock()

	alloc := g.CreateAlloc(b)
	s1 := g.CreateStore(b)
	g.Node(s1).AddOverwrite(NewDefSite(alloc, offset.Offset(0), offset.Offset(8)))
	s2 := g.CreateStore(b)
	g.Node(s2).AddOverwrite(NewDefSite(alloc, offset.Offset(0), offset.Offset(8)))
	l := g.CreateLoad(b)
	g.Node(l).AddUse(NewDefSite(alloc, offset.Offset(0), offset.Offset(8)))

	g.AddSuccessor(alloc, s1)
	g.AddSuccessor(s1, s2)
	g.AddSuccessor(s2, l)

	an := NewAnalysis(g, config.New(), unknown, nil, newTestLogger())
	an.Run()

	defs := an.GetReachingDefinitions(g.Node(l), NewDefSite(alloc, offset.Offset(0), offset.Offset(8)))
	assert.ElementsMatch(t, []dgraph.NodeID{s2}, defs)
}

// TestMOPWeakUpdateUnionsBothDefinitions: two weak Defines to the same
// DefSite both reach a later use.
func TestMOPWeakUpdateUnionsBothDefinitions(t *testing.T) {
	g := NewGraph()
	unknown := g.createNode(Noop)
	b := g.CreateBlock()

	alloc := g.CreateAlloc(b)
	s1 := g.CreateStore(b)
	g.Node(s1).AddDefine(NewDefSite(alloc, offset.Offset(0), offset.Offset(8)))
	s2 := g.CreateStore(b)
	g.Node(s2).AddDefine(NewDefSite(alloc, offset.Offset(0), offset.Offset(8)))
	l := g.CreateLoad(b)
	g.Node(l).AddUse(NewDefSite(alloc, offset.Offset(0), offset.Offset(8)))

	g.AddSuccessor(alloc, s1)
	g.AddSuccessor(s1, s2)
	g.AddSuccessor(s2, l)

	an := NewAnalysis(g, config.New(), unknown, nil, newTestLogger())
	an.Run()

	defs := an.GetReachingDefinitions(g.Node(l), NewDefSite(alloc, offset.Offset(0), offset.Offset(8)))
	assert.ElementsMatch(t, []dgraph.NodeID{s1, s2}, defs)
}

// TestMOPMergeAtJoinUnionsBothBranches: a diamond CFG where each branch
// strongly overwrites the same DefSite; the join sees both as reaching
// definitions (neither branch dominates the other, so neither's strong
// update kills the other's at the merge).
func TestMOPMergeAtJoinUnionsBothBranches(t *testing.T) {
	g := NewGraph()
	unknown := g.createNode(Noop)
	b := g.CreateBlock()

	alloc := g.CreateAlloc(b)
	branchPoint := g.CreateNoop(b)
	left := g.CreateStore(b)
	g.Node(left).AddOverwrite(NewDefSite(alloc, offset.Offset(0), offset.Offset(8)))
	right := g.CreateStore(b)
	g.Node(right).AddOverwrite(NewDefSite(alloc, offset.Offset(0), offset.Offset(8)))
	join := g.CreateLoad(b)
	g.Node(join).AddUse(NewDefSite(alloc, offset.Offset(0), offset.Offset(8)))

	g.AddSuccessor(alloc, branchPoint)
	g.AddSuccessor(branchPoint, left)
	g.AddSuccessor(branchPoint, right)
	g.AddSuccessor(left, join)
	g.AddSuccessor(right, join)

	an := NewAnalysis(g, config.New(), unknown, nil, newTestLogger())
	an.Run()

	defs := an.GetReachingDefinitions(g.Node(join), NewDefSite(alloc, offset.Offset(0), offset.Offset(8)))
	assert.ElementsMatch(t, []dgraph.NodeID{left, right}, defs)
}

func TestRDMapMergeIdempotence(t *testing.T) {
	alloc := dgraph.NodeID(5)
	ds := NewDefSite(alloc, offset.Offset(0), offset.Offset(4))

	other := NewMap()
	other.Add(ds, dgraph.NodeID(1))

	m1 := NewMap()
	m1.Merge(other, MergeParams{})
	m2 := m1.Clone()
	m2.Merge(other, MergeParams{})

	assert.True(t, m1.Equal(m2), "merging the same map twice must be idempotent")
}

func TestRDMapSaturationCollapsesToUnknownBucket(t *testing.T) {
	alloc := dgraph.NodeID(9)
	m := NewMap()
	other := NewMap()
	ds := NewDefSite(alloc, offset.Offset(0), offset.Offset(4))
	other.buckets[ds] = newNodeSet(1, 2, 3, 4)

	m.Merge(other, MergeParams{MaxSetSize: 3})

	_, hasConcrete := m.Get(ds)
	assert.False(t, hasConcrete, "the oversized concrete bucket must be folded away")

	unknownDS := NewDefSite(alloc, offset.Unknown, offset.Unknown)
	folded, ok := m.Get(unknownDS)
	assert.True(t, ok)
	assert.Len(t, folded, 4)
}

func TestSRGBuilderMergesPhiAtJoin(t *testing.T) {
	g := NewGraph()
	entry := g.CreateBlock()
	left := g.CreateBlock()
	right := g.CreateBlock()
	join := g.CreateBlock()
	AddBlockEdge(entry, left)
	AddBlockEdge(entry, right)
	AddBlockEdge(left, join)
	AddBlockEdge(right, join)

	alloc := g.CreateAlloc(entry)
	ds := NewDefSite(alloc, offset.Offset(0), offset.Offset(8))

	sb := NewSRGBuilder(g, newTestLogger())

	s1 := g.CreateStore(left)
	sb.RecordStrongDefinition(left, ds, s1)
	s2 := g.CreateStore(right)
	sb.RecordStrongDefinition(right, ds, s2)

	defs := sb.Read(join, ds)
	assert.Len(t, defs, 1, "exactly one phi should materialize at the join")
	phi := defs[0]
	assert.Equal(t, Phi, g.Node(phi).Tag)
	assert.ElementsMatch(t, []dgraph.NodeID{s1, s2}, g.Node(phi).Operands())
}

func TestSRGBuilderSingleUncoveredPredecessorNeedsNoPhi(t *testing.T) {
	g := NewGraph()
	entry := g.CreateBlock()
	next := g.CreateBlock()
	AddBlockEdge(entry, next)

	alloc := g.CreateAlloc(entry)
	ds := NewDefSite(alloc, offset.Offset(0), offset.Offset(8))

	sb := NewSRGBuilder(g, newTestLogger())
	s1 := g.CreateStore(entry)
	sb.RecordStrongDefinition(entry, ds, s1)

	defs := sb.Read(next, ds)
	assert.Equal(t, []dgraph.NodeID{s1}, defs)
}

func TestRemoveTrivialPhisCollapsesIdenticalOperands(t *testing.T) {
	g := NewGraph()
	entry := g.CreateBlock()
	left := g.CreateBlock()
	right := g.CreateBlock()
	join := g.CreateBlock()
	AddBlockEdge(entry, left)
	AddBlockEdge(entry, right)
	AddBlockEdge(left, join)
	AddBlockEdge(right, join)

	alloc := g.CreateAlloc(entry)
	ds := NewDefSite(alloc, offset.Offset(0), offset.Offset(8))

	sb := NewSRGBuilder(g, newTestLogger())
	s1 := g.CreateStore(entry)
	sb.RecordStrongDefinition(entry, ds, s1)

	// Both branches read the same single definition through to the join,
	// so the merged phi's only (deduplicated) operand is s1.
	load := g.CreateLoad(join)
	defs := sb.Read(join, ds)
	require := assert.New(t)
	require.Len(defs, 1)
	phi := defs[0]
	dgraph.AddOperand(&g.Node(load).Base, &g.Node(phi).Base)

	sb.RemoveTrivialPhis()

	require.Equal(Store, g.Node(s1).Tag)
	require.Contains(g.Node(load).Operands(), s1)
	require.NotContains(g.Node(load).Operands(), phi)
}
