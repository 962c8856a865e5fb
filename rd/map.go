package rd

import (
	"github.com/progslice/pdg/dgraph"
	"github.com/progslice/pdg/offset"
)

// nodeSet is a small set of RDNode ids — the value half of an RDMap bucket.
// Kept as a plain map rather than container.NumberSet: RDMap buckets are
// typically one or two definitions wide, and NumberSet's sparse-block
// representation pays for itself on the much bigger points-to sets, not
// here.
type nodeSet map[dgraph.NodeID]struct{}

func newNodeSet(ids ...dgraph.NodeID) nodeSet {
	s := make(nodeSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s nodeSet) clone() nodeSet {
	clone := make(nodeSet, len(s))
	for id := range s {
		clone[id] = struct{}{}
	}
	return clone
}

func (s nodeSet) union(other nodeSet) bool {
	changed := false
	for id := range other {
		if _, ok := s[id]; !ok {
			s[id] = struct{}{}
			changed = true
		}
	}
	return changed
}

func (s nodeSet) equal(other nodeSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if _, ok := other[id]; !ok {
			return false
		}
	}
	return true
}

// Ids returns the set's members. Order is unspecified.
func (s nodeSet) Ids() []dgraph.NodeID {
	out := make([]dgraph.NodeID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

// Map is the reaching-definitions map of spec §3.3: DefSite -> Set<RDNode>.
// Add is the weak update (union), Update is the strong update (replace);
// Merge implements spec §4.5's multi-parameter merge used by the MOP
// fixpoint (§4.6) to combine a node's incoming predecessor maps.
type Map struct {
	buckets map[DefSite]nodeSet
}

// NewMap returns an empty reaching-definitions map.
func NewMap() *Map {
	return &Map{buckets: make(map[DefSite]nodeSet)}
}

// Get returns the reaching-definition set recorded for ds, if any.
func (m *Map) Get(ds DefSite) (nodeSet, bool) {
	s, ok := m.buckets[ds]
	return s, ok
}

// DefSites returns every DefSite with a non-empty bucket.
func (m *Map) DefSites() []DefSite {
	out := make([]DefSite, 0, len(m.buckets))
	for ds := range m.buckets {
		out = append(out, ds)
	}
	return out
}

// Add weakly updates ds: node is unioned into whatever reaching-def set
// already exists for ds. Returns whether the map changed.
func (m *Map) Add(ds DefSite, node dgraph.NodeID) bool {
	s, ok := m.buckets[ds]
	if !ok {
		m.buckets[ds] = newNodeSet(node)
		return true
	}
	return s.union(newNodeSet(node))
}

// Update strongly updates ds: node replaces whatever reaching-def set
// existed for ds, discarding prior definitions entirely (spec glossary
// "Strong update").
func (m *Map) Update(ds DefSite, node dgraph.NodeID) bool {
	existing, ok := m.buckets[ds]
	if ok && existing.equal(newNodeSet(node)) {
		return false
	}
	m.buckets[ds] = newNodeSet(node)
	return true
}

// Clone returns a deep copy of m, safe to mutate independently.
func (m *Map) Clone() *Map {
	clone := NewMap()
	for ds, s := range m.buckets {
		clone.buckets[ds] = s.clone()
	}
	return clone
}

// Equal reports whether m and other hold exactly the same reaching-def set
// for every DefSite.
func (m *Map) Equal(other *Map) bool {
	if other == nil {
		return len(m.buckets) == 0
	}
	if len(m.buckets) != len(other.buckets) {
		return false
	}
	for ds, s := range m.buckets {
		otherS, ok := other.buckets[ds]
		if !ok || !s.equal(otherS) {
			return false
		}
	}
	return true
}

func (m *Map) foldTargetToUnknown(target dgraph.NodeID) {
	folded := newNodeSet()
	for ds, s := range m.buckets {
		if ds.Target != target {
			continue
		}
		folded.union(s)
		if !ds.Offset.IsUnknown() {
			delete(m.buckets, ds)
		}
	}
	if len(folded) == 0 {
		return
	}
	unknownDS := NewDefSite(target, offset.Unknown, offset.Unknown)
	existing, ok := m.buckets[unknownDS]
	if !ok {
		m.buckets[unknownDS] = folded
		return
	}
	existing.union(folded)
}

// MergeParams bundles spec §4.5's merge parameters: the kill set belonging
// to the node the merge is being computed for (noUpdate — that node's own
// Overwrites, which shadow any predecessor reaching-def over the same
// range), the two saturation-shaping flags, and the size cutoff.
type MergeParams struct {
	// NoUpdate is the set of DefSites the merge's destination node itself
	// strongly defines: a DefSite from other that is fully covered by one
	// of these (same target, and the covering entry is not Unknown-offset)
	// is a strong kill and is not imported.
	NoUpdate []DefSite

	// StrongUpdateUnknown permits an Unknown-offset DefSite from other to
	// also be killed when some NoUpdate entry for the same target is known
	// to cover the allocation's entire size (SizeOf reports that size).
	StrongUpdateUnknown bool
	SizeOf              func(target dgraph.NodeID) (offset.Offset, bool)

	// MergeUnknown, when set, additionally folds every concrete-offset
	// bucket for a target into that target's Unknown-offset bucket once any
	// Unknown-offset DefSite for it is merged in — trading offset precision
	// for a smaller bucket count.
	MergeUnknown bool

	// MaxSetSize: once any concrete-offset bucket of a target touched by the
	// merge holds more than this many members, every concrete-offset bucket
	// of that target is folded into its Unknown-offset DefSite. Zero means
	// unbounded.
	MaxSetSize int
}

func isStronglyKilled(ds DefSite, noUpdate []DefSite, strongUpdateUnknown bool, sizeOf func(dgraph.NodeID) (offset.Offset, bool)) bool {
	if !ds.IsUnknown() {
		for _, kill := range noUpdate {
			if kill.Target != ds.Target || kill.IsUnknown() {
				continue
			}
			if ds.Interval().IsSubsetOf(kill.Interval()) {
				return true
			}
		}
		return false
	}
	if !strongUpdateUnknown || sizeOf == nil {
		return false
	}
	size, ok := sizeOf(ds.Target)
	if !ok {
		return false
	}
	whole := offset.NewInterval(offset.Offset(0), size)
	for _, kill := range noUpdate {
		if kill.Target != ds.Target || kill.IsUnknown() {
			continue
		}
		if whole.IsSubsetOf(kill.Interval()) {
			return true
		}
	}
	return false
}

// Merge folds other into m per spec §4.5's three steps: strong-kill
// filtering against params.NoUpdate, optional Unknown-offset folding, and
// size-triggered saturation. Returns whether m changed.
func (m *Map) Merge(other *Map, params MergeParams) bool {
	changed := false
	touchedTargets := make(map[dgraph.NodeID]bool)

	for ds, s := range other.buckets {
		if isStronglyKilled(ds, params.NoUpdate, params.StrongUpdateUnknown, params.SizeOf) {
			continue
		}
		existing, ok := m.buckets[ds]
		if !ok {
			existing = newNodeSet()
			m.buckets[ds] = existing
		}
		if existing.union(s) {
			changed = true
		}
		touchedTargets[ds.Target] = true
		if ds.Offset.IsUnknown() && params.MergeUnknown {
			before := m.Clone()
			m.foldTargetToUnknown(ds.Target)
			if !m.Equal(before) {
				changed = true
			}
		}
	}

	if params.MaxSetSize > 0 {
		for target := range touchedTargets {
			for ds, s := range m.buckets {
				if ds.Target != target || ds.Offset.IsUnknown() {
					continue
				}
				if len(s) > params.MaxSetSize {
					m.foldTargetToUnknown(target)
					changed = true
					break
				}
			}
		}
	}

	return changed
}
