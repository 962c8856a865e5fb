package dgraph

// EdgeChooser selects which outgoing edges of id to follow during a walk.
// Passing a chooser that also returns interprocedural call/return edges
// (rather than just control-flow successors) turns a BFS into the
// interprocedural walk described in spec §4.1.
type EdgeChooser func(id NodeID) []NodeID

// VisitTracker stamps each node with the id of the last walk ("run") that
// visited it, so a fresh walk can tell new from already-visited nodes in
// O(1) amortised time without clearing any per-node state between runs —
// spec §4.1's "per-run monotone id".
type VisitTracker struct {
	lastRun []uint64
	run     uint64
}

// NewVisitTracker returns a tracker with no runs yet recorded.
func NewVisitTracker() *VisitTracker {
	return &VisitTracker{}
}

func (v *VisitTracker) ensure(n int) {
	if n <= len(v.lastRun) {
		return
	}
	grown := make([]uint64, n*2)
	copy(grown, v.lastRun)
	v.lastRun = grown
}

// StartRun begins a new run and returns its id.
func (v *VisitTracker) StartRun() uint64 {
	v.run++
	return v.run
}

// Visit marks id as visited in the current run, returning true the first
// time id is visited in this run and false on every subsequent call.
func (v *VisitTracker) Visit(id NodeID) bool {
	idx := int(id)
	v.ensure(idx + 1)
	if v.lastRun[idx] == v.run {
		return false
	}
	v.lastRun[idx] = v.run
	return true
}

// Visited reports whether id has already been visited in the current run,
// without marking it.
func (v *VisitTracker) Visited(id NodeID) bool {
	idx := int(id)
	if idx >= len(v.lastRun) {
		return false
	}
	return v.lastRun[idx] == v.run
}

// BFS walks breadth-first from roots, following chooseEdges at each node,
// and returns the visited ids in discovery order (roots first). tracker is
// reset to a fresh run at the start of the call; passing the same tracker
// across many BFS calls is what gives the O(1)-amortised-clear property.
func BFS(roots []NodeID, chooseEdges EdgeChooser, tracker *VisitTracker) []NodeID {
	tracker.StartRun()
	var order []NodeID
	queue := make([]NodeID, 0, len(roots))
	for _, r := range roots {
		if tracker.Visit(r) {
			queue = append(queue, r)
		}
	}
	for i := 0; i < len(queue); i++ {
		id := queue[i]
		order = append(order, id)
		for _, succ := range chooseEdges(id) {
			if tracker.Visit(succ) {
				queue = append(queue, succ)
			}
		}
	}
	return order
}

// BFSFunc is like BFS but invokes visit(id) the moment each node is
// discovered, instead of building a result slice; useful for the marker's
// mark-in-place traversal (spec §4.7), which has no need to materialise the
// visited set.
func BFSFunc(roots []NodeID, chooseEdges EdgeChooser, tracker *VisitTracker, visit func(NodeID)) {
	tracker.StartRun()
	queue := make([]NodeID, 0, len(roots))
	for _, r := range roots {
		if tracker.Visit(r) {
			queue = append(queue, r)
		}
	}
	for i := 0; i < len(queue); i++ {
		id := queue[i]
		visit(id)
		for _, succ := range chooseEdges(id) {
			if tracker.Visit(succ) {
				queue = append(queue, succ)
			}
		}
	}
}
