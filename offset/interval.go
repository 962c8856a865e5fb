package offset

import "fmt"

// Interval is a closed byte range [Start, Start+Len-1]. An interval whose
// Start or Len is Unknown, or whose Len is zero, is itself "unknown": it
// carries no precise information and never overlaps or unites with anything
// (overlap and containment are conservatively false for it, matching the
// source library's treatment of unknown-offset writes as "touches
// everything" only at a higher layer, never inside interval arithmetic
// itself).
type Interval struct {
	Start Offset
	Len   Offset
}

// NewInterval builds the interval [start, start+len-1].
func NewInterval(start, length Offset) Interval {
	return Interval{Start: start, Len: length}
}

// IsUnknown reports whether the interval carries no precise range.
func (iv Interval) IsUnknown() bool {
	return iv.Start.IsUnknown() || iv.Len.IsUnknown() || iv.Len == 0
}

// End returns the last concrete byte covered by iv (Start+Len-1). Panics if
// iv is unknown.
func (iv Interval) End() Offset {
	if iv.IsUnknown() {
		panic("offset: End of unknown interval")
	}
	return iv.Start.Add(iv.Len).Sub(1)
}

// Overlaps reports classical closed-interval overlap. Always false if
// either interval is unknown.
func (iv Interval) Overlaps(other Interval) bool {
	if iv.IsUnknown() || other.IsUnknown() {
		return false
	}
	return iv.Start.LessEqual(other.End()) && other.Start.LessEqual(iv.End())
}

// IsSubsetOf reports whether iv lies entirely within other:
// other.Start <= iv.Start && iv.Start+iv.Len <= other.Start+other.Len.
func (iv Interval) IsSubsetOf(other Interval) bool {
	if iv.IsUnknown() || other.IsUnknown() {
		return false
	}
	return other.Start.LessEqual(iv.Start) && iv.Start.Add(iv.Len).LessEqual(other.Start.Add(other.Len))
}

// Unite merges iv with other in place if they overlap or touch end-to-end,
// returning the merged interval and whether a merge occurred. If no merge
// occurred, iv is returned unchanged.
func (iv Interval) Unite(other Interval) (Interval, bool) {
	if iv.IsUnknown() || other.IsUnknown() {
		return iv, false
	}
	touching := iv.Start.Add(iv.Len) == other.Start || other.Start.Add(other.Len) == iv.Start
	if !iv.Overlaps(other) && !touching {
		return iv, false
	}
	start := Min(iv.Start, other.Start)
	end := Max(iv.Start.Add(iv.Len), other.Start.Add(other.Len))
	return NewInterval(start, end.Sub(start)), true
}

func (iv Interval) String() string {
	if iv.IsUnknown() {
		return "[?,?]"
	}
	return fmt.Sprintf("[%s,%s]", iv.Start, iv.End())
}
