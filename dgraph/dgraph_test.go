package dgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperandBackEdges(t *testing.T) {
	n := NewBase(1)
	op := NewBase(2)

	AddOperand(&n, &op)
	assert.Equal(t, []NodeID{2}, n.Operands())
	assert.Equal(t, []NodeID{1}, op.Users())

	RemoveOperand(&n, &op)
	assert.Empty(t, n.Operands())
	assert.Empty(t, op.Users())
}

func TestAddRemoveEdge(t *testing.T) {
	a := NewBase(1)
	b := NewBase(2)
	AddEdge(&a, &b)
	assert.Equal(t, []NodeID{2}, a.Successors())
	assert.Equal(t, []NodeID{1}, b.Predecessors())

	RemoveEdge(&a, &b)
	assert.Empty(t, a.Successors())
	assert.Empty(t, b.Predecessors())
}

func TestVisitTrackerAmortizedClear(t *testing.T) {
	tr := NewVisitTracker()
	tr.StartRun()
	assert.True(t, tr.Visit(5))
	assert.False(t, tr.Visit(5))

	tr.StartRun() // new run: same id must be visitable again
	assert.True(t, tr.Visit(5))
}

func TestBFSOrder(t *testing.T) {
	// 1 -> 2 -> 4
	//  \-> 3 -/
	edges := map[NodeID][]NodeID{
		1: {2, 3},
		2: {4},
		3: {4},
		4: {},
	}
	tr := NewVisitTracker()
	order := BFS([]NodeID{1}, func(id NodeID) []NodeID { return edges[id] }, tr)
	assert.Equal(t, []NodeID{1, 2, 3, 4}, order)
}

func TestTarjanSCCSimpleCycle(t *testing.T) {
	// 1 <-> 2 -> 3
	edges := map[NodeID][]NodeID{
		1: {2},
		2: {1, 3},
		3: {},
	}
	result := TarjanSCC([]NodeID{1, 2, 3}, func(id NodeID) []NodeID { return edges[id] })
	assert.Equal(t, result.ComponentOf[1], result.ComponentOf[2], "1 and 2 form a cycle")
	assert.NotEqual(t, result.ComponentOf[1], result.ComponentOf[3])
	assert.Equal(t, 2, result.SizeOf[result.ComponentOf[1]])
	assert.Equal(t, 1, result.SizeOf[result.ComponentOf[3]])

	// 3 is a sink, so it must get a lower (more "reverse-topological") id
	// than the {1,2} component, which can still reach it.
	assert.Less(t, result.ComponentOf[3], result.ComponentOf[1])
}

func TestTarjanSCCAcyclicChain(t *testing.T) {
	edges := map[NodeID][]NodeID{
		1: {2},
		2: {3},
		3: {},
	}
	result := TarjanSCC([]NodeID{1, 2, 3}, func(id NodeID) []NodeID { return edges[id] })
	assert.Equal(t, 3, len(result.SizeOf))
	for _, sz := range result.SizeOf {
		assert.Equal(t, 1, sz)
	}
}

func TestTarjanSCCDeepChainDoesNotRecurse(t *testing.T) {
	const depth = 20000
	edges := make(map[NodeID][]NodeID, depth)
	nodes := make([]NodeID, depth)
	for i := 0; i < depth; i++ {
		id := NodeID(i + 1)
		nodes[i] = id
		if i+1 < depth {
			edges[id] = []NodeID{NodeID(i + 2)}
		} else {
			edges[id] = nil
		}
	}
	result := TarjanSCC(nodes, func(id NodeID) []NodeID { return edges[id] })
	assert.Equal(t, depth, len(result.SizeOf))
}
