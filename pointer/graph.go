package pointer

import (
	"fmt"

	"github.com/progslice/pdg/dgraph"
	"github.com/progslice/pdg/offset"
)

// PointerGraph is the unique owner of every PSNode and PointerSubgraph in an
// analysis: nodes indexed by id, subgraphs indexed by id, a call graph
// (caller subgraph -> callee subgraphs), and the three pre-allocated global
// nodes NULL, UNKNOWN and INVALIDATED (spec §3.2). A graph is never shared
// between analyses.
type PointerGraph struct {
	nodes     []*PSNode // nodes[0] is always nil: id 0 is the sentinel
	subgraphs []*PointerSubgraph

	// CallGraph maps a caller subgraph to the subgraphs it is known to
	// call. RegisterCall adds the entries (for indirect calls, as
	// semCallFuncPtr splices new edges), and only for a caller node that has
	// a parent subgraph.
	CallGraph map[SubgraphID][]SubgraphID

	Null        dgraph.NodeID
	Unknown     dgraph.NodeID
	Invalidated dgraph.NodeID

	// functionSubgraph maps a Function node (a first-class function value)
	// to the subgraph it denotes, so an indirect CallFuncPtr can splice a
	// call edge once its function-pointer operand's points-to set includes
	// that Function node.
	functionSubgraph map[dgraph.NodeID]SubgraphID
}

// NewPointerGraph returns an empty graph with its three global nodes
// already created, per spec §3.2's invariants for NullAddr, UnknownMem and
// Invalidated.
func NewPointerGraph() *PointerGraph {
	g := &PointerGraph{
		nodes:            []*PSNode{nil}, // index 0 reserved
		CallGraph:        make(map[SubgraphID][]SubgraphID),
		functionSubgraph: make(map[dgraph.NodeID]SubgraphID),
	}
	g.Null = g.createNode(NullAddr)
	g.Unknown = g.createNode(UnknownMem)
	g.Invalidated = g.createNode(Invalidated)

	// NullAddr points only to itself at offset 0; UnknownMem points to
	// itself at Unknown; Invalidated has an empty set (spec §3.2).
	g.Node(g.Null).PointsTo.Add(g.Null, offset.Offset(0))
	g.Node(g.Unknown).PointsTo.Add(g.Unknown, offset.Unknown)

	return g
}

// Node returns the node with the given id. Panics if id is out of range or
// the sentinel — callers are expected to have validated ids already (this
// is a graph-internal invariant, not a recoverable analysis condition).
func (g *PointerGraph) Node(id dgraph.NodeID) *PSNode {
	if id == dgraph.Sentinel || int(id) >= len(g.nodes) || g.nodes[id] == nil {
		panic(fmt.Sprintf("pointer: invalid node id n%d", id))
	}
	return g.nodes[id]
}

// NumNodes returns the number of allocated node ids (including the
// sentinel), i.e. one more than the highest valid id.
func (g *PointerGraph) NumNodes() int { return len(g.nodes) }

// AllNodeIDs returns every valid node id, in ascending order.
func (g *PointerGraph) AllNodeIDs() []dgraph.NodeID {
	ids := make([]dgraph.NodeID, 0, len(g.nodes)-1)
	for i := 1; i < len(g.nodes); i++ {
		if g.nodes[i] != nil {
			ids = append(ids, dgraph.NodeID(i))
		}
	}
	return ids
}

func (g *PointerGraph) createNode(tag Tag) dgraph.NodeID {
	id := dgraph.NodeID(len(g.nodes))
	n := newPSNode(id, tag)
	g.nodes = append(g.nodes, n)
	return id
}

// ---------- Construction interface (spec §6.1) ----------

// requireOperands panics if got != want, enforcing each tag's operand-count
// contract (spec §3.2, §7 kind 3 "wrong operand count for a variant").
func requireOperands(tag Tag, got, want int) {
	if got != want {
		panic(fmt.Sprintf("pointer: %s node requires %d operand(s), got %d", tag, want, got))
	}
}

func (g *PointerGraph) newWithOperands(tag Tag, operands ...dgraph.NodeID) dgraph.NodeID {
	id := g.createNode(tag)
	n := g.Node(id)
	for _, op := range operands {
		dgraph.AddOperand(&n.Base, &g.Node(op).Base)
	}
	return id
}

// newFixedArity is newWithOperands plus the operand-count contract check of
// spec §7 kind 3, for tags whose arity is fixed rather than variadic.
func (g *PointerGraph) newFixedArity(tag Tag, want int, operands ...dgraph.NodeID) dgraph.NodeID {
	requireOperands(tag, len(operands), want)
	return g.newWithOperands(tag, operands...)
}

// CreateAlloc creates an Alloc node of the given size. Per spec §3.2, Alloc
// nodes always contain a self-pointer (self, 0), added here immediately —
// "even before analysis".
func (g *PointerGraph) CreateAlloc(size offset.Offset) dgraph.NodeID {
	id := g.createNode(Alloc)
	n := g.Node(id)
	n.Size = size
	n.extra = &AllocAttrs{Size: size}
	n.PointsTo.Add(id, offset.Offset(0))
	return id
}

// CreateFunction creates a Function node. Like Alloc, it self-points
// immediately.
func (g *PointerGraph) CreateFunction(name string) dgraph.NodeID {
	id := g.createNode(Function)
	n := g.Node(id)
	n.extra = &FunctionAttrs{Name: name}
	n.PointsTo.Add(id, offset.Offset(0))
	return id
}

// CreateLoad creates a Load node with a single pointer operand.
func (g *PointerGraph) CreateLoad(ptr dgraph.NodeID) dgraph.NodeID {
	return g.newFixedArity(Load, 1, ptr)
}

// CreateStore creates a Store node with (value, pointer) operands, in that
// order — operand 0 is the value being stored, operand 1 the destination
// pointer (spec §4.4 "Store v, p").
func (g *PointerGraph) CreateStore(value, ptr dgraph.NodeID) dgraph.NodeID {
	return g.newFixedArity(Store, 2, value, ptr)
}

// CreateGep creates a Gep node: operand 0 is the base pointer, k the
// constant field offset.
func (g *PointerGraph) CreateGep(base dgraph.NodeID, k offset.Offset) dgraph.NodeID {
	id := g.newFixedArity(Gep, 1, base)
	g.Node(id).extra = &GepAttrs{Offset: k}
	return id
}

// CreatePhi creates a Phi node with the given operand values.
func (g *PointerGraph) CreatePhi(operands ...dgraph.NodeID) dgraph.NodeID {
	return g.newWithOperands(Phi, operands...)
}

// CreateCast creates a Cast node copying v's points-to set.
func (g *PointerGraph) CreateCast(v dgraph.NodeID) dgraph.NodeID {
	return g.newFixedArity(Cast, 1, v)
}

// CreateConstant creates a Constant node. Per spec §4.4 it is asserted to
// have exactly one pointer and is never modified after construction; the
// caller supplies that single points-to pair directly.
func (g *PointerGraph) CreateConstant(target dgraph.NodeID, at offset.Offset) dgraph.NodeID {
	id := g.createNode(Constant)
	g.Node(id).PointsTo.Add(target, at)
	return id
}

// CreateNoop creates a no-op node (used as CFG scaffolding).
func (g *PointerGraph) CreateNoop() dgraph.NodeID {
	return g.createNode(Noop)
}

// CreateMemcpy creates a Memcpy node: operand 0 is the source pointer,
// operand 1 the destination pointer, and length the byte count copied.
func (g *PointerGraph) CreateMemcpy(src, dst dgraph.NodeID, length offset.Offset) dgraph.NodeID {
	id := g.newFixedArity(Memcpy, 2, src, dst)
	g.Node(id).extra = &MemcpyAttrs{Length: length}
	return id
}

// CreateEntry creates an Entry node for a named procedure with the given
// formal parameter nodes, in order.
func (g *PointerGraph) CreateEntry(name string, params ...dgraph.NodeID) dgraph.NodeID {
	id := g.createNode(Entry)
	g.Node(id).extra = &EntryAttrs{FuncName: name, Params: params}
	return id
}

// SetFunctionSubgraph records that the Function value node fn denotes
// subgraph sg — the binding a CallFuncPtr resolves through when its
// function-pointer operand's points-to set includes fn.
func (g *PointerGraph) SetFunctionSubgraph(fn dgraph.NodeID, sg *PointerSubgraph) {
	g.functionSubgraph[fn] = sg.ID
}

// FunctionSubgraph returns the subgraph a Function value node denotes, if
// one has been bound.
func (g *PointerGraph) FunctionSubgraph(fn dgraph.NodeID) (SubgraphID, bool) {
	id, ok := g.functionSubgraph[fn]
	return id, ok
}

// CreateReturn creates a Return node with the returned operand values.
func (g *PointerGraph) CreateReturn(operands ...dgraph.NodeID) dgraph.NodeID {
	return g.newWithOperands(Return, operands...)
}

// CreateCall creates a Call node. Callees are attached later via
// RegisterCall, since at construction time indirect callees are unknown and
// even direct callees may not yet have a subgraph.
func (g *PointerGraph) CreateCall(operands ...dgraph.NodeID) dgraph.NodeID {
	id := g.newWithOperands(Call, operands...)
	g.Node(id).extra = &CallAttrs{}
	return id
}

// CreateCallFuncPtr creates a CallFuncPtr node; operand 0 is the function
// pointer being called, the rest are the call's arguments.
func (g *PointerGraph) CreateCallFuncPtr(fnPtr dgraph.NodeID, args ...dgraph.NodeID) dgraph.NodeID {
	id := g.newWithOperands(CallFuncPtr, append([]dgraph.NodeID{fnPtr}, args...)...)
	g.Node(id).extra = &CallAttrs{}
	return id
}

// CreateCallReturn creates a CallReturn node, the node a call's control
// returns to.
func (g *PointerGraph) CreateCallReturn() dgraph.NodeID {
	return g.createNode(CallReturn)
}

// CreateFork creates a Fork node.
func (g *PointerGraph) CreateFork() dgraph.NodeID {
	id := g.createNode(Fork)
	g.Node(id).extra = &ForkJoinAttrs{}
	return id
}

// CreateJoin creates a Join node.
func (g *PointerGraph) CreateJoin() dgraph.NodeID {
	id := g.createNode(Join)
	g.Node(id).extra = &ForkJoinAttrs{}
	return id
}

// CreateFree creates a Free node; operand 0 is the pointer being freed.
func (g *PointerGraph) CreateFree(ptr dgraph.NodeID) dgraph.NodeID {
	return g.newFixedArity(Free, 1, ptr)
}

// CreateInvalidateObject creates an InvalidateObject node; operand 0 is the
// pointer whose pointee is invalidated.
func (g *PointerGraph) CreateInvalidateObject(ptr dgraph.NodeID) dgraph.NodeID {
	return g.newFixedArity(InvalidateObject, 1, ptr)
}

// CreateInvalidateLocals creates an InvalidateLocals node for a returning
// function.
func (g *PointerGraph) CreateInvalidateLocals() dgraph.NodeID {
	return g.createNode(InvalidateLocals)
}

// CreateSubgraph creates a new PointerSubgraph rooted at entry.
func (g *PointerGraph) CreateSubgraph(entry dgraph.NodeID, varargGather dgraph.NodeID) *PointerSubgraph {
	sg := &PointerSubgraph{
		ID:           SubgraphID(len(g.subgraphs) + 1),
		Entry:        entry,
		VarargGather: varargGather,
	}
	g.subgraphs = append(g.subgraphs, sg)
	g.Node(entry).Parent = sg.ID
	return sg
}

// Subgraph returns the subgraph with the given id.
func (g *PointerGraph) Subgraph(id SubgraphID) *PointerSubgraph {
	if id == 0 || int(id) > len(g.subgraphs) {
		panic(fmt.Sprintf("pointer: invalid subgraph id %d", id))
	}
	return g.subgraphs[id-1]
}

// Subgraphs returns every subgraph in the graph.
func (g *PointerGraph) Subgraphs() []*PointerSubgraph { return g.subgraphs }

// AddReturn registers node as one of subgraph's return nodes.
func (g *PointerGraph) AddReturn(sg *PointerSubgraph, node dgraph.NodeID) {
	sg.Returns = append(sg.Returns, node)
	g.Node(node).Parent = sg.ID
}

// AddSuccessor adds a control-flow edge from -> to.
func (g *PointerGraph) AddSuccessor(from, to dgraph.NodeID) {
	dgraph.AddEdge(&g.Node(from).Base, &g.Node(to).Base)
}

// RemoveSuccessor removes the control-flow edge from -> to.
func (g *PointerGraph) RemoveSuccessor(from, to dgraph.NodeID) {
	dgraph.RemoveEdge(&g.Node(from).Base, &g.Node(to).Base)
}

// AddOperand records operand as an operand of n, maintaining the use-def
// back-edge invariant.
func (g *PointerGraph) AddOperand(n, operand dgraph.NodeID) {
	dgraph.AddOperand(&g.Node(n).Base, &g.Node(operand).Base)
}

// SetPairedNode pairs a Call/CallFuncPtr with its CallReturn, or vice versa;
// both directions are recorded (spec §3.2's "non-null paired CallReturn,
// and vice versa").
func (g *PointerGraph) SetPairedNode(a, b dgraph.NodeID) {
	g.Node(a).Paired = b
	g.Node(b).Paired = a
}

// RegisterCall records that caller (a Call/CallFuncPtr node) may transfer
// control to callee's entry: adds callee to the node's CallAttrs, records
// the edge in the subgraph-level call graph, and wires the control-flow
// edges described in spec §3.2 ("Call transfers to callee entries and
// CallReturn receives control from callee returns"). Idempotent for a given
// (caller, callee) pair.
func (g *PointerGraph) RegisterCall(caller dgraph.NodeID, callee *PointerSubgraph) {
	n := g.Node(caller)
	attrs := n.CallAttrs()
	for _, c := range attrs.Callees {
		if c == callee.ID {
			return // already spliced
		}
	}
	attrs.Callees = append(attrs.Callees, callee.ID)

	if n.Parent != 0 {
		callers := g.CallGraph[n.Parent]
		already := false
		for _, c := range callers {
			if c == callee.ID {
				already = true
				break
			}
		}
		if !already {
			g.CallGraph[n.Parent] = append(callers, callee.ID)
		}
	}

	g.AddSuccessor(caller, callee.Entry)
	callReturn := n.Paired
	if callReturn != dgraph.Sentinel {
		for _, ret := range callee.Returns {
			g.AddSuccessor(ret, callReturn)
		}
		// Sever the direct Call->CallReturn edge now that control routes
		// through the callee (spec §3.2 invariant), but only once: with
		// more than one resolved callee the direct edge was already
		// severed by the first RegisterCall.
		if len(attrs.Callees) == 1 {
			g.RemoveSuccessor(caller, callReturn)
		}
	}
}

// AddPointsTo adds the pair (pointer, at) to node's points-to set — i.e.
// node now points directly at pointer's own location, at offset at.
func (g *PointerGraph) AddPointsTo(node, pointer dgraph.NodeID, at offset.Offset) bool {
	return g.Node(node).PointsTo.Add(pointer, at)
}

// AddPointsToUnknownOffset adds (target, Unknown) to node's points-to set,
// collapsing any concrete offsets already recorded for target.
func (g *PointerGraph) AddPointsToUnknownOffset(node, target dgraph.NodeID) bool {
	return g.Node(node).PointsTo.Add(target, offset.Unknown)
}

// SetIsHeap marks an Alloc node as heap-allocated.
func (g *PointerGraph) SetIsHeap(n dgraph.NodeID) { g.Node(n).AllocAttrs().Heap = true }

// SetIsGlobal marks an Alloc node as a global.
func (g *PointerGraph) SetIsGlobal(n dgraph.NodeID) { g.Node(n).AllocAttrs().Global = true }

// SetZeroInitialized marks an Alloc node as zero-initialized at creation.
func (g *PointerGraph) SetZeroInitialized(n dgraph.NodeID) {
	g.Node(n).AllocAttrs().ZeroInitialized = true
}

// SetSize updates an Alloc node's size.
func (g *PointerGraph) SetSize(n dgraph.NodeID, size offset.Offset) {
	g.Node(n).Size = size
	g.Node(n).AllocAttrs().Size = size
}

// SetIsTemporary marks an Alloc node as a compiler-introduced temporary.
func (g *PointerGraph) SetIsTemporary(n dgraph.NodeID) {
	g.Node(n).AllocAttrs().Temporary = true
}
