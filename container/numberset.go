package container

import "golang.org/x/tools/container/intsets"

// NumberSet is the "small-then-big number set" of spec §2 component 11: a
// set of non-negative ids that is cheap for the common case (a handful of
// ids, e.g. an SCC's member node ids or a call site's set of resolved
// callees) but degrades gracefully to large, sparse sets (e.g. every node
// reachable from a huge entry function). intsets.Sparse provides exactly
// this shape and is the container the real golang.org/x/tools/go/pointer
// package historically used for points-to sets, so it is a direct fit here.
type NumberSet struct {
	s intsets.Sparse
}

// NewNumberSet returns an empty number set, optionally pre-populated.
func NewNumberSet(ids ...int) *NumberSet {
	ns := &NumberSet{}
	for _, id := range ids {
		ns.s.Insert(id)
	}
	return ns
}

// Insert adds id, returning whether the set changed.
func (n *NumberSet) Insert(id int) bool { return n.s.Insert(id) }

// Remove deletes id, returning whether it was present.
func (n *NumberSet) Remove(id int) bool { return n.s.Remove(id) }

// Has reports membership.
func (n *NumberSet) Has(id int) bool { return n.s.Has(id) }

// Len reports the number of members.
func (n *NumberSet) Len() int { return n.s.Len() }

// IsEmpty reports whether the set has no members.
func (n *NumberSet) IsEmpty() bool { return n.s.IsEmpty() }

// UnionWith merges other into n in place.
func (n *NumberSet) UnionWith(other *NumberSet) {
	if other == nil {
		return
	}
	n.s.UnionWith(&other.s)
}

// AppendTo appends the set's members, in ascending order, to dst.
func (n *NumberSet) AppendTo(dst []int) []int { return n.s.AppendTo(dst) }

// Clear empties the set.
func (n *NumberSet) Clear() { n.s.Clear() }

func (n *NumberSet) String() string { return n.s.String() }
