package offset

// DisjointIntervalSet holds a set of pairwise-disjoint intervals. Insert
// unions the inserted interval with every existing interval it overlaps or
// touches, maintaining disjointness.
type DisjointIntervalSet struct {
	intervals []Interval
}

// NewDisjointIntervalSet returns an empty set.
func NewDisjointIntervalSet() *DisjointIntervalSet {
	return &DisjointIntervalSet{}
}

// Insert unions iv with every overlapping or touching interval already in
// the set, replacing them with the single merged result.
func (s *DisjointIntervalSet) Insert(iv Interval) {
	kept := s.intervals[:0]
	merged := iv
	anyMerge := false
	for _, existing := range s.intervals {
		if m, ok := merged.Unite(existing); ok {
			merged = m
			anyMerge = true
			continue
		}
		kept = append(kept, existing)
	}
	_ = anyMerge
	s.intervals = append(kept, merged)
}

// Intervals returns the current disjoint interval list. The returned slice
// must not be mutated by the caller.
func (s *DisjointIntervalSet) Intervals() []Interval {
	return s.intervals
}

// Len returns the number of disjoint intervals currently held.
func (s *DisjointIntervalSet) Len() int {
	return len(s.intervals)
}

// Covers reports whether iv is a subset of the union of the intervals in s.
// Per the source library this is a conservative under-approximation for
// unknown intervals: an unknown iv is always reported covered, since no
// finite union of concrete intervals can ever demonstrate otherwise and the
// caller (IntervalMap.collect) treats "covered" only as a stopping
// condition, not a soundness claim.
func (s *DisjointIntervalSet) Covers(iv Interval) bool {
	if iv.IsUnknown() {
		return true
	}
	for _, existing := range s.intervals {
		if iv.Overlaps(existing) && iv.IsSubsetOf(existing) {
			return true
		}
	}
	return false
}
