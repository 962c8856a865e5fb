// Package ptset implements the points-to set: a semantic set of
// (Target, Offset) pairs with the Unknown-offset collapse rule of spec §3.4.
package ptset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/progslice/pdg/offset"
)

// Target identifies the allocation (or function, or special node) a
// points-to pair refers to. In the pointer package this is a NodeID; kept
// generic here (via a comparable type parameter) so the set can be reused
// for the RD graph's DefSite targets, which are also node ids but belong to
// a different graph.
type Target comparable

// Set is a points-to set over Target T: a collection of (T, Offset) pairs
// obeying the collapse rule — adding (t, Unknown) removes every (t, k) with
// concrete k, and once (t, Unknown) is present no (t, k) may be added.
type Set[T Target] struct {
	// concrete[t] is the set of concrete offsets recorded for t, absent
	// entirely once t has collapsed to Unknown.
	concrete map[T]map[offset.Offset]struct{}
	unknown  map[T]struct{}
}

// New returns an empty points-to set.
func New[T Target]() *Set[T] {
	return &Set[T]{
		concrete: make(map[T]map[offset.Offset]struct{}),
		unknown:  make(map[T]struct{}),
	}
}

// Len returns the number of (target, offset) pairs currently recorded,
// counting a collapsed (t, Unknown) as a single pair.
func (s *Set[T]) Len() int {
	n := len(s.unknown)
	for _, offs := range s.concrete {
		n += len(offs)
	}
	return n
}

// Add inserts (t, o). If o is Unknown, every existing (t, k) with concrete k
// is removed first (the collapse rule). If (t, Unknown) is already present,
// adding (t, k) for concrete k is a no-op: the collapsed entry already
// subsumes it. Returns whether the set changed.
func (s *Set[T]) Add(t T, o offset.Offset) bool {
	if _, collapsed := s.unknown[t]; collapsed {
		return false // (t, k) never re-expands a collapsed target
	}
	if o.IsUnknown() {
		changed := len(s.concrete[t]) > 0
		delete(s.concrete, t)
		if _, ok := s.unknown[t]; !ok {
			s.unknown[t] = struct{}{}
			changed = true
		}
		return changed
	}
	offs, ok := s.concrete[t]
	if !ok {
		offs = make(map[offset.Offset]struct{})
		s.concrete[t] = offs
	}
	if _, present := offs[o]; present {
		return false
	}
	offs[o] = struct{}{}
	return true
}

// Union inserts every pair of other into s, respecting the collapse rule.
// Returns whether s changed.
func (s *Set[T]) Union(other *Set[T]) bool {
	if other == nil {
		return false
	}
	changed := false
	for t := range other.unknown {
		if s.Add(t, offset.Unknown) {
			changed = true
		}
	}
	for t, offs := range other.concrete {
		for o := range offs {
			if s.Add(t, o) {
				changed = true
			}
		}
	}
	return changed
}

// PointsToTarget reports target-only membership: whether s contains (t, *)
// for any offset, concrete or unknown.
func (s *Set[T]) PointsToTarget(t T) bool {
	if _, ok := s.unknown[t]; ok {
		return true
	}
	return len(s.concrete[t]) > 0
}

// Contains reports whether (t, o) is a member. A concrete o is considered a
// member if either (t, o) was added directly, or t has collapsed to
// Unknown (which subsumes every concrete offset per spec §3.4's invariant
// that no concrete (t,k) coexists with (t, Unknown)).
func (s *Set[T]) Contains(t T, o offset.Offset) bool {
	if _, ok := s.unknown[t]; ok {
		return true
	}
	if o.IsUnknown() {
		return false
	}
	_, ok := s.concrete[t][o]
	return ok
}

// MustPointTo reports whether s is a singleton (t, o) with concrete o,
// returning that pair. Required by the flow-sensitive engines to decide
// strong update eligibility (spec §4.3).
func (s *Set[T]) MustPointTo() (t T, o offset.Offset, ok bool) {
	if s.Len() != 1 {
		return t, o, false
	}
	for target := range s.unknown {
		return target, offset.Unknown, false // the sole pair has unknown offset: not a concrete must-point-to
	}
	for target, offs := range s.concrete {
		for off := range offs {
			return target, off, true
		}
	}
	return t, o, false
}

// Each calls f once for every (target, offset) pair. Iteration order is
// unspecified, as the underlying semantics are that of a set.
func (s *Set[T]) Each(f func(t T, o offset.Offset)) {
	for t := range s.unknown {
		f(t, offset.Unknown)
	}
	for t, offs := range s.concrete {
		for o := range offs {
			f(t, o)
		}
	}
}

// Equal reports whether s and other contain exactly the same (target,
// offset) pairs.
func (s *Set[T]) Equal(other *Set[T]) bool {
	if other == nil {
		return s.Len() == 0
	}
	if len(s.unknown) != len(other.unknown) {
		return false
	}
	for t := range s.unknown {
		if _, ok := other.unknown[t]; !ok {
			return false
		}
	}
	if len(s.concrete) != len(other.concrete) {
		return false
	}
	for t, offs := range s.concrete {
		otherOffs, ok := other.concrete[t]
		if !ok || len(offs) != len(otherOffs) {
			return false
		}
		for o := range offs {
			if _, ok := otherOffs[o]; !ok {
				return false
			}
		}
	}
	return true
}

// Targets returns the distinct targets appearing in s, regardless of
// offset.
func (s *Set[T]) Targets() []T {
	seen := make(map[T]struct{}, len(s.concrete)+len(s.unknown))
	for t := range s.unknown {
		seen[t] = struct{}{}
	}
	for t := range s.concrete {
		seen[t] = struct{}{}
	}
	out := make([]T, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	return out
}

// String renders the set deterministically for debugging and test output;
// it is not used on any hot analysis path.
func (s *Set[T]) String() string {
	var parts []string
	s.Each(func(t T, o offset.Offset) {
		parts = append(parts, fmt.Sprintf("(%v,%s)", t, o))
	})
	sort.Strings(parts)
	return "{" + strings.Join(parts, ", ") + "}"
}
