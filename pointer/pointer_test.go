package pointer

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/progslice/pdg/config"
	"github.com/progslice/pdg/dgraph"
	"github.com/progslice/pdg/offset"
)

// buildDisjointOffsetProgram builds: A = alloc(8); p = gep(A,0); q = gep(A,4);
// store(v1,p); store(v2,q); l = load(p) — a straight-line CFG with no loops.
func buildDisjointOffsetProgram(g *PointerGraph) (load, v1, v2 dgraph.NodeID) {
	a := g.CreateAlloc(offset.Offset(8))
	v1 = g.CreateAlloc(offset.Offset(1))
	v2 = g.CreateAlloc(offset.Offset(1))
	p := g.CreateGep(a, offset.Offset(0))
	q := g.CreateGep(a, offset.Offset(4))
	s1 := g.CreateStore(v1, p)
	s2 := g.CreateStore(v2, q)
	load = g.CreateLoad(p)

	g.AddSuccessor(p, q)
	g.AddSuccessor(q, s1)
	g.AddSuccessor(s1, s2)
	g.AddSuccessor(s2, load)
	return load, v1, v2
}

func newTestLogger() logr.Logger { return logr.Discard() }

func TestFlowSensitiveLoadSeesOnlyItsOwnOffset(t *testing.T) {
	g := NewPointerGraph()
	load, v1, v2 := buildDisjointOffsetProgram(g)

	an := NewAnalysis(g, config.New(), NewFlowSensitiveEngine(), newTestLogger())
	an.Run()

	loadNode := g.Node(load)
	assert.True(t, loadNode.PointsTo.PointsToTarget(v1))
	assert.False(t, loadNode.PointsTo.PointsToTarget(v2))
}

func TestFlowInsensitiveLoadSeesStoreAtSameOffset(t *testing.T) {
	// A store through a Gep at offset 0 of the base is seen by a load
	// through that same Gep.
	g := NewPointerGraph()
	a := g.CreateAlloc(offset.Offset(8))
	v1 := g.CreateAlloc(offset.Offset(1))
	p := g.CreateGep(a, offset.Offset(0))
	s1 := g.CreateStore(v1, p)
	load := g.CreateLoad(p)
	g.AddSuccessor(p, s1)
	g.AddSuccessor(s1, load)

	an := NewAnalysis(g, config.New(), NewFlowInsensitiveEngine(), newTestLogger())
	an.Run()

	assert.True(t, g.Node(load).PointsTo.PointsToTarget(v1))
}

func TestGepCoercesOffsetBeyondKnownSizeToUnknown(t *testing.T) {
	g := NewPointerGraph()
	a := g.CreateAlloc(offset.Offset(4))
	p := g.CreateGep(a, offset.Offset(100))

	an := NewAnalysis(g, config.New(), NewFlowInsensitiveEngine(), newTestLogger())
	an.Run()

	pNode := g.Node(p)
	_, o, ok := pNode.PointsTo.MustPointTo()
	assert.False(t, ok, "an offset beyond the allocation's size must collapse to Unknown")
	_ = o
}

func TestZeroInitializedAllocLoadsAsNull(t *testing.T) {
	g := NewPointerGraph()
	a := g.CreateAlloc(offset.Offset(8))
	g.SetZeroInitialized(a)
	p := g.CreateGep(a, offset.Offset(0))
	load := g.CreateLoad(p)
	g.AddSuccessor(p, load)

	an := NewAnalysis(g, config.New(), NewFlowSensitiveEngine(), newTestLogger())
	an.Run()

	assert.True(t, g.Node(load).PointsTo.Contains(g.Null, offset.Offset(0)))
}

func TestRegisterCallSeversDirectEdgeOnFirstCallee(t *testing.T) {
	g := NewPointerGraph()
	entry := g.CreateEntry("callee")
	ret := g.CreateReturn()
	g.AddSuccessor(entry, ret)
	sg := g.CreateSubgraph(entry, 0)
	g.AddReturn(sg, ret)

	call := g.CreateCall()
	callReturn := g.CreateCallReturn()
	g.SetPairedNode(call, callReturn)
	g.AddSuccessor(call, callReturn)

	g.RegisterCall(call, sg)

	callNode := g.Node(call)
	for _, s := range callNode.Successors() {
		assert.NotEqual(t, callReturn, s, "the direct edge must be severed once a callee is spliced in")
	}
	assert.Contains(t, callNode.Successors(), entry)
}

func TestIndirectCallRejectsArityMismatch(t *testing.T) {
	g := NewPointerGraph()
	param := g.CreateAlloc(offset.Offset(8))
	entry := g.CreateEntry("f", param)
	ret := g.CreateReturn()
	g.AddSuccessor(entry, ret)
	sg := g.CreateSubgraph(entry, 0)
	g.AddReturn(sg, ret)

	fn := g.CreateFunction("f")
	g.SetFunctionSubgraph(fn, sg)
	fnPtrSlot := g.CreateAlloc(offset.Offset(8))
	fnPtr := g.CreateGep(fnPtrSlot, offset.Offset(0))
	g.AddPointsTo(fnPtr, fn, offset.Offset(0))

	// Zero arguments against a one-parameter function: must be rejected.
	call := g.CreateCallFuncPtr(fnPtr)

	an := NewAnalysis(g, config.New(), NewFlowInsensitiveEngine(), newTestLogger())
	an.Run()

	require.NotEmpty(t, an.Diagnostics)
	found := false
	for _, d := range an.Diagnostics {
		if d.Kind == SignatureMismatch {
			found = true
		}
	}
	assert.True(t, found)
	assert.Empty(t, g.CallGraph)
	_ = call
}

func TestInvalidatedPointerIsRewritten(t *testing.T) {
	g := NewPointerGraph()
	obj := g.CreateAlloc(offset.Offset(8))
	holder := g.CreateAlloc(offset.Offset(8))
	holderPtr := g.CreateGep(holder, offset.Offset(0))
	objPtr := g.CreateGep(obj, offset.Offset(0))

	store := g.CreateStore(obj, holderPtr)
	free := g.CreateFree(objPtr)
	load := g.CreateLoad(holderPtr)

	g.AddSuccessor(holderPtr, objPtr)
	g.AddSuccessor(objPtr, store)
	g.AddSuccessor(store, free)
	g.AddSuccessor(free, load)

	an := NewAnalysis(g, config.New(), NewFSInvEngine(), newTestLogger())
	an.Run()

	loadNode := g.Node(load)
	assert.True(t, loadNode.PointsTo.PointsToTarget(g.Invalidated))
}

// TestInvalidateLocalsSparesCallersAllocation builds a caller that stores a
// pointer to its own local into a slot, calls a callee whose only work is
// InvalidateLocals at its return, then reads that slot again back in the
// caller. The local belongs to the caller's subgraph, not the callee's, so
// it must survive the callee's InvalidateLocals untouched (spec §4.3:
// "Locals are invalidated only if the allocation's parent equals the current
// function").
func TestInvalidateLocalsSparesCallersAllocation(t *testing.T) {
	g := NewPointerGraph()

	callerEntry := g.CreateEntry("caller")
	local := g.CreateAlloc(offset.Offset(8))
	localPtr := g.CreateGep(local, offset.Offset(0))
	marker := g.CreateAlloc(offset.Offset(1))
	storeLocal := g.CreateStore(marker, localPtr)
	call := g.CreateCall()
	callReturn := g.CreateCallReturn()
	g.SetPairedNode(call, callReturn)
	loadAfter := g.CreateLoad(localPtr)
	callerRet := g.CreateReturn()

	g.AddSuccessor(callerEntry, local)
	g.AddSuccessor(local, localPtr)
	g.AddSuccessor(localPtr, storeLocal)
	g.AddSuccessor(storeLocal, call)
	g.AddSuccessor(call, callReturn)
	g.AddSuccessor(callReturn, loadAfter)
	g.AddSuccessor(loadAfter, callerRet)

	callerSg := g.CreateSubgraph(callerEntry, 0)
	g.AddReturn(callerSg, callerRet)

	calleeEntry := g.CreateEntry("callee")
	invLocals := g.CreateInvalidateLocals()
	calleeRet := g.CreateReturn()
	g.AddSuccessor(calleeEntry, invLocals)
	g.AddSuccessor(invLocals, calleeRet)
	calleeSg := g.CreateSubgraph(calleeEntry, 0)
	g.AddReturn(calleeSg, calleeRet)

	g.RegisterCall(call, calleeSg)

	an := NewAnalysis(g, config.New(), NewFSInvEngine(), newTestLogger())
	an.Run()

	loadNode := g.Node(loadAfter)
	assert.True(t, loadNode.PointsTo.PointsToTarget(marker), "the caller's own local must still hold its stored value")
	assert.False(t, loadNode.PointsTo.PointsToTarget(g.Invalidated), "a callee's InvalidateLocals must not reach into the caller's locals")
}
