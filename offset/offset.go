// Package offset implements total-order arithmetic on byte offsets with an
// explicit Unknown sentinel, and closed-interval overlap/containment/union
// over such offsets.
package offset

import "fmt"

// Offset is a non-negative byte offset, or Unknown. Ordering is total on
// concrete values; Unknown is incomparable with everything including itself
// and saturates arithmetic.
type Offset uint64

// Unknown is the sentinel offset produced whenever a computation cannot be
// resolved to a concrete byte position: field-sensitivity cutoff, GEP of an
// already-unknown pointer, and so on.
const Unknown Offset = ^Offset(0)

// IsUnknown reports whether o is the Unknown sentinel.
func (o Offset) IsUnknown() bool { return o == Unknown }

// Add returns o+other, saturating to Unknown if either operand is Unknown or
// the sum overflows.
func (o Offset) Add(other Offset) Offset {
	if o.IsUnknown() || other.IsUnknown() {
		return Unknown
	}
	sum := o + other
	if sum < o { // overflow
		return Unknown
	}
	return sum
}

// Sub returns o-other. Both operands must be concrete and o must be >=
// other; Sub panics otherwise, since subtracting offsets only makes sense
// when both ends of the subtraction are precisely known (callers that may
// not know this should check IsUnknown first).
func (o Offset) Sub(other Offset) Offset {
	if o.IsUnknown() || other.IsUnknown() {
		panic("offset: Sub requires both operands concrete")
	}
	if other > o {
		panic("offset: Sub result would be negative")
	}
	return o - other
}

// Less reports whether o orders strictly before other. Unknown is
// incomparable: Less returns false whenever either operand is Unknown.
func (o Offset) Less(other Offset) bool {
	if o.IsUnknown() || other.IsUnknown() {
		return false
	}
	return o < other
}

// LessEqual reports o <= other under the same incomparability rule as Less.
func (o Offset) LessEqual(other Offset) bool {
	return o == other || o.Less(other)
}

// Max returns the greater of two concrete offsets, or Unknown if either is
// Unknown.
func Max(a, b Offset) Offset {
	if a.IsUnknown() || b.IsUnknown() {
		return Unknown
	}
	if a < b {
		return b
	}
	return a
}

// Min returns the lesser of two concrete offsets, or Unknown if either is
// Unknown.
func Min(a, b Offset) Offset {
	if a.IsUnknown() || b.IsUnknown() {
		return Unknown
	}
	if a < b {
		return a
	}
	return b
}

func (o Offset) String() string {
	if o.IsUnknown() {
		return "?"
	}
	return fmt.Sprintf("%d", uint64(o))
}
