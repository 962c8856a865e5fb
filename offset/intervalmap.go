package offset

// bucket pairs an interval with the value it maps to. IntervalMap keeps
// buckets in insertion order; lookups scan in reverse, so the
// most-recently-added mapping for a given byte range is seen first.
type bucket[V any] struct {
	interval Interval
	value    V
}

// IntervalMap is a bucket list (Interval, V) supporting killOverlapping,
// collect and collectAll, as described in spec §3.1. It is the backing
// store for the SSA reaching-definitions builder's per-block "most recent
// definition" sidecar (rd.BasicBlock.Definitions); the memory object keeps
// its own offset-keyed map instead.
type IntervalMap[V any] struct {
	buckets []bucket[V]
}

// NewIntervalMap returns an empty interval map.
func NewIntervalMap[V any]() *IntervalMap[V] {
	return &IntervalMap[V]{}
}

// Add records a new mapping from interval to value, without disturbing any
// existing bucket. Most recent additions are seen first by Collect /
// CollectAll, since those scan in reverse insertion order.
func (m *IntervalMap[V]) Add(interval Interval, value V) {
	m.buckets = append(m.buckets, bucket[V]{interval: interval, value: value})
}

// Len reports the number of live buckets.
func (m *IntervalMap[V]) Len() int { return len(m.buckets) }

// KillOverlapping removes every byte covered by ki from every bucket,
// splitting a bucket into zero, one, or two surviving sub-buckets as
// needed. A bucket whose own interval is unknown (whole-object writes) is
// never split or removed by a concrete kill interval, matching the source's
// treatment of unknown-length buckets as un-narrowable.
func (m *IntervalMap[V]) KillOverlapping(ki Interval) {
	if ki.IsUnknown() {
		return
	}
	var toAdd []bucket[V]
	kept := m.buckets[:0]
	for _, b := range m.buckets {
		iv := b.interval
		if iv.Len.IsUnknown() || iv.IsUnknown() || !iv.Overlaps(ki) {
			kept = append(kept, b)
			continue
		}
		switch {
		case ki.IsSubsetOf(iv):
			// ki splits iv into a left remainder and a right remainder.
			if left := NewInterval(iv.Start, ki.Start.Sub(iv.Start)); left.Len != 0 {
				toAdd = append(toAdd, bucket[V]{interval: left, value: b.value})
			}
			rightStart := ki.Start.Add(ki.Len)
			ivEnd := iv.Start.Add(iv.Len)
			if rightStart.Less(ivEnd) {
				toAdd = append(toAdd, bucket[V]{interval: NewInterval(rightStart, ivEnd.Sub(rightStart)), value: b.value})
			}
		case !ki.IsSubsetOf(iv) && !iv.IsSubsetOf(ki):
			// Partial overlap: exactly one side of iv survives.
			var start, end Offset
			if ki.Start.LessEqual(iv.Start) {
				start = ki.Start.Add(ki.Len)
				end = iv.Start.Add(iv.Len)
			} else {
				start = iv.Start
				end = ki.Start
			}
			if start.Less(end) {
				toAdd = append(toAdd, bucket[V]{interval: NewInterval(start, end.Sub(start)), value: b.value})
			}
		default:
			// iv is a subset of ki (or identical): killed entirely.
		}
	}
	m.buckets = append(kept, toAdd...)
}

// Collect scans buckets in reverse insertion order, returning the values
// whose intervals overlap interval, stopping as soon as interval is a
// subset of the union of the intervals seen so far (including those in
// alreadyCovered, which lets a caller chain Collect calls — e.g. the SRG
// builder walking up predecessor blocks — without re-discovering ranges it
// has already resolved). The third return reports whether interval ended up
// fully covered.
func (m *IntervalMap[V]) Collect(interval Interval, alreadyCovered *DisjointIntervalSet) (values []V, covered *DisjointIntervalSet, isCovered bool) {
	acc := NewDisjointIntervalSet()
	if alreadyCovered != nil {
		for _, iv := range alreadyCovered.Intervals() {
			acc.Insert(iv)
		}
	}
	for i := len(m.buckets) - 1; i >= 0; i-- {
		b := m.buckets[i]
		if interval.IsUnknown() || b.interval.IsUnknown() || b.interval.Overlaps(interval) {
			acc.Insert(b.interval)
			values = append(values, b.value)
			if acc.Covers(interval) {
				break
			}
		}
	}
	return values, acc, acc.Covers(interval)
}

// CollectAll returns every value whose interval overlaps interval, without
// the early stopping Collect performs.
func (m *IntervalMap[V]) CollectAll(interval Interval) []V {
	var values []V
	for i := len(m.buckets) - 1; i >= 0; i-- {
		b := m.buckets[i]
		if interval.IsUnknown() || b.interval.IsUnknown() || b.interval.Overlaps(interval) {
			values = append(values, b.value)
		}
	}
	return values
}
