package dgraph

// SCCResult is the outcome of computing strongly connected components over
// a set of nodes. ComponentOf maps each node id to its component id;
// component ids are assigned in the order components are completed by
// Tarjan's algorithm, which is reverse topological order over the
// condensation (spec §4.1: "the SCC id on each node gives a reverse
// topological order"). SizeOf reports each component's member count, so
// callers can cheaply test "is this node in a non-trivial (looping) SCC"
// without recomputing membership.
type SCCResult struct {
	ComponentOf map[NodeID]int
	SizeOf      []int
}

// InLoop reports whether id's component has more than one member, or is a
// single node with a self-loop — i.e. whether id can be part of a cycle.
// selfLoop should report whether id has id as one of its own successors;
// the caller computes it from the specific graph's edge set.
func (r *SCCResult) InLoop(id NodeID, selfLoop bool) bool {
	c, ok := r.ComponentOf[id]
	if !ok {
		return false
	}
	return r.SizeOf[c] > 1 || selfLoop
}

// tarjanFrame is one stack frame of the iterative Tarjan walk: the node
// being processed and how far through its successor list we've got. The
// original C++ source (SCC.h) keeps an explicit stack for exactly this
// reason — avoiding recursion depth proportional to CFG depth, which for a
// generated or heavily inlined program can exceed a native call stack.
type tarjanFrame struct {
	node    NodeID
	succIdx int
}

// TarjanSCC computes strongly connected components over nodes, following
// edges given by chooseEdges. It is iterative (an explicit work stack)
// rather than recursive, so it never overflows the Go call stack regardless
// of graph depth.
func TarjanSCC(nodes []NodeID, chooseEdges EdgeChooser) *SCCResult {
	index := make(map[NodeID]int, len(nodes))
	lowlink := make(map[NodeID]int, len(nodes))
	onStack := make(map[NodeID]bool, len(nodes))
	var stack []NodeID
	nextIndex := 0

	result := &SCCResult{ComponentOf: make(map[NodeID]int, len(nodes))}

	var work []tarjanFrame

	strongConnect := func(start NodeID) {
		work = append(work, tarjanFrame{node: start})
		index[start] = nextIndex
		lowlink[start] = nextIndex
		nextIndex++
		stack = append(stack, start)
		onStack[start] = true

		for len(work) > 0 {
			top := &work[len(work)-1]
			v := top.node
			succs := chooseEdges(v)

			advanced := false
			for top.succIdx < len(succs) {
				w := succs[top.succIdx]
				top.succIdx++
				if _, seen := index[w]; !seen {
					index[w] = nextIndex
					lowlink[w] = nextIndex
					nextIndex++
					stack = append(stack, w)
					onStack[w] = true
					work = append(work, tarjanFrame{node: w})
					advanced = true
					break
				} else if onStack[w] {
					if lowlink[w] < lowlink[v] {
						lowlink[v] = lowlink[w]
					}
				}
			}
			if advanced {
				continue // process the newly pushed frame first
			}

			// v's successors are exhausted: pop it, propagating lowlink to
			// whoever pushed it (if any), and if v is a component root,
			// pop the SCC off the node stack.
			work = work[:len(work)-1]
			if len(work) > 0 {
				parent := &work[len(work)-1]
				if lowlink[v] < lowlink[parent.node] {
					lowlink[parent.node] = lowlink[v]
				}
			}
			if lowlink[v] == index[v] {
				compID := len(result.SizeOf)
				size := 0
				for {
					w := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					onStack[w] = false
					result.ComponentOf[w] = compID
					size++
					if w == v {
						break
					}
				}
				result.SizeOf = append(result.SizeOf, size)
			}
		}
	}

	for _, n := range nodes {
		if _, seen := index[n]; !seen {
			strongConnect(n)
		}
	}
	return result
}
