// Package container implements the sparse bitvector, small-then-big number
// set, and caching hash map of spec §2 component 11 ("Intervals and caching
// containers"). The disjoint-interval set and interval-keyed map live in
// package offset alongside the Offset/Interval arithmetic they are built on.
package container

import "github.com/bits-and-blooms/bitset"

// BitVector is a dense, index-addressed bit set for a monotone "has this id
// been seen" flag over a compact id space. No other package of this module
// uses it; the validator's reachability sweep keeps its own map.
type BitVector struct {
	bits *bitset.BitSet
}

// NewBitVector returns a bit vector with capacity for at least n bits,
// growing automatically beyond that as bits are set.
func NewBitVector(n uint) *BitVector {
	return &BitVector{bits: bitset.New(n)}
}

// Set marks bit i.
func (b *BitVector) Set(i uint) { b.bits.Set(i) }

// Clear unmarks bit i.
func (b *BitVector) Clear(i uint) { b.bits.Clear(i) }

// Test reports whether bit i is set.
func (b *BitVector) Test(i uint) bool { return b.bits.Test(i) }

// Count returns the number of set bits.
func (b *BitVector) Count() uint { return b.bits.Count() }

// Union sets every bit that is set in other.
func (b *BitVector) Union(other *BitVector) {
	if other == nil {
		return
	}
	b.bits.InPlaceUnion(other.bits)
}

// Each calls f once for every set bit, in ascending order.
func (b *BitVector) Each(f func(i uint)) {
	for i, ok := b.bits.NextSet(0); ok; i, ok = b.bits.NextSet(i + 1) {
		f(i)
	}
}
