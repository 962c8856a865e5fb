// Package dgraph implements the shared node skeleton used by both the
// pointer graph and the reaching-definitions graph (spec §2 component 3):
// unique ids, successor/predecessor lists, operand lists with use-def
// back-edges, an SCC id slot, and a reusable BFS walker plus Tarjan SCC
// computation (spec §4.1).
package dgraph

// NodeID indexes a node within a graph's node table. Id 0 is reserved as a
// sentinel (spec §3.2: "id=0 reserved as sentinel") and is never assigned to
// a real node.
type NodeID uint64

// Sentinel is the reserved, never-assigned zero id.
const Sentinel NodeID = 0

// Base is the shared node skeleton embedded by both pointer.PSNode and
// rd.RDNode. It owns the graph-structural fields; variant-specific payload
// (tag, extra attributes, points-to set, def/use sites) lives in the
// embedding type.
type Base struct {
	id    NodeID
	succs []NodeID
	preds []NodeID
	ops   []NodeID
	users []NodeID
	sccID int
	data  any
}

// NewBase initializes a Base for a freshly allocated node id. sccID starts
// at -1 ("not yet computed") so callers can distinguish a real SCC (always
// >= 0) from a node that predates the last SCC recomputation.
func NewBase(id NodeID) Base {
	return Base{id: id, sccID: -1}
}

// ID returns the node's unique id.
func (b *Base) ID() NodeID { return b.id }

// Successors returns the control-flow successor ids.
func (b *Base) Successors() []NodeID { return b.succs }

// Predecessors returns the control-flow predecessor ids.
func (b *Base) Predecessors() []NodeID { return b.preds }

// Operands returns the operand ids, in the order they were added.
func (b *Base) Operands() []NodeID { return b.ops }

// Users returns the ids of nodes that have this node as an operand.
func (b *Base) Users() []NodeID { return b.users }

// SCCID returns the strongly-connected-component id last computed for this
// node, or -1 if SCCs have never been computed (or were invalidated by a
// graph edit since).
func (b *Base) SCCID() int { return b.sccID }

// SetSCCID records the node's SCC id.
func (b *Base) SetSCCID(id int) { b.sccID = id }

// UserData returns the engine-owned scratch slot (spec §3.2's "opaque
// user-data slot"). Each analysis engine defines its own concrete type for
// this and type-asserts on read.
func (b *Base) UserData() any { return b.data }

// SetUserData replaces the scratch slot.
func (b *Base) SetUserData(v any) { b.data = v }

// AddSuccessor records a control-flow edge to to. Does not also add the
// reciprocal predecessor edge; callers add both ends via AddEdge.
func (b *Base) AddSuccessor(to NodeID) { b.succs = append(b.succs, to) }

// AddPredecessor records a control-flow edge from from.
func (b *Base) AddPredecessor(from NodeID) { b.preds = append(b.preds, from) }

// RemoveSuccessor removes exactly one occurrence of to, if present.
func (b *Base) RemoveSuccessor(to NodeID) { b.succs = removeOne(b.succs, to) }

// RemovePredecessor removes exactly one occurrence of from, if present.
func (b *Base) RemovePredecessor(from NodeID) { b.preds = removeOne(b.preds, from) }

// AddEdge records the successor/predecessor pair (from -> to) on both ends.
// from is the Base of the source node, to of the destination.
func AddEdge(from, to *Base) {
	from.AddSuccessor(to.id)
	to.AddPredecessor(from.id)
}

// RemoveEdge removes the successor/predecessor pair (from -> to) from both
// ends. Used when splicing severs a direct Call->CallReturn edge in favour
// of routing through the callee (spec §3.2 invariant).
func RemoveEdge(from, to *Base) {
	from.RemoveSuccessor(to.id)
	to.RemovePredecessor(from.id)
}

// AddOperand records operand as an operand of n, and appends n.id to
// operand.users — the use-def back-edge invariant of spec §3.2.
func AddOperand(n, operand *Base) {
	n.ops = append(n.ops, operand.id)
	operand.users = append(operand.users, n.id)
}

// RemoveOperand removes exactly one occurrence of operand from n's operand
// list, and exactly one matching back-edge from operand.users.
func RemoveOperand(n, operand *Base) {
	n.ops = removeOne(n.ops, operand.id)
	operand.users = removeOne(operand.users, n.id)
}

func removeOne(s []NodeID, id NodeID) []NodeID {
	for i, x := range s {
		if x == id {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
