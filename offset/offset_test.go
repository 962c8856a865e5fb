package offset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOffsetArithmeticSaturates(t *testing.T) {
	assert.True(t, Unknown.IsUnknown())
	assert.Equal(t, Unknown, Offset(3).Add(Unknown))
	assert.Equal(t, Unknown, Unknown.Add(Offset(3)))
	assert.Equal(t, Offset(7), Offset(3).Add(Offset(4)))
}

func TestOffsetOrderingIncomparable(t *testing.T) {
	assert.False(t, Unknown.Less(Offset(1)))
	assert.False(t, Offset(1).Less(Unknown))
	assert.True(t, Offset(1).Less(Offset(2)))
	assert.True(t, Offset(1).LessEqual(Offset(1)))
}

func TestIntervalOverlapAndSubset(t *testing.T) {
	a := NewInterval(0, 8)  // [0,7]
	b := NewInterval(4, 8)  // [4,11]
	c := NewInterval(2, 2)  // [2,3]
	unk := NewInterval(Unknown, 8)

	assert.True(t, a.Overlaps(b))
	assert.True(t, a.Overlaps(c))
	assert.True(t, c.IsSubsetOf(a))
	assert.False(t, a.IsSubsetOf(c))
	assert.False(t, unk.Overlaps(a))
	assert.True(t, unk.IsUnknown())
}

func TestIntervalUnite(t *testing.T) {
	a := NewInterval(0, 4) // [0,3]
	b := NewInterval(4, 4) // [4,7] touches a
	merged, ok := a.Unite(b)
	assert.True(t, ok)
	assert.Equal(t, NewInterval(0, 8), merged)

	c := NewInterval(100, 4)
	_, ok = a.Unite(c)
	assert.False(t, ok)
}

func TestDisjointIntervalSetInsertMerges(t *testing.T) {
	s := NewDisjointIntervalSet()
	s.Insert(NewInterval(0, 4))
	s.Insert(NewInterval(8, 4))
	assert.Equal(t, 2, s.Len())

	s.Insert(NewInterval(4, 4)) // bridges the two
	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Covers(NewInterval(0, 12)))
	assert.False(t, s.Covers(NewInterval(0, 20)))
}

func TestIntervalMapKillOverlappingSplits(t *testing.T) {
	m := NewIntervalMap[string]()
	m.Add(NewInterval(0, 16), "whole")
	m.KillOverlapping(NewInterval(4, 4)) // kill [4,7] out of [0,15]

	all := m.CollectAll(NewInterval(0, 16))
	assert.Len(t, all, 2) // left [0,3], right [8,15]
}

func TestIntervalMapKillOverlappingRemovesWhollyContained(t *testing.T) {
	m := NewIntervalMap[string]()
	m.Add(NewInterval(4, 4), "small")
	m.KillOverlapping(NewInterval(0, 16))
	assert.Empty(t, m.CollectAll(NewInterval(0, 16)))
}

func TestIntervalMapCollectStopsWhenCovered(t *testing.T) {
	m := NewIntervalMap[int]()
	m.Add(NewInterval(0, 4), 1)
	m.Add(NewInterval(0, 16), 2) // added later, covers the whole range
	m.Add(NewInterval(100, 4), 3)

	values, _, covered := m.Collect(NewInterval(0, 4), nil)
	assert.True(t, covered)
	assert.Equal(t, []int{2}, values) // only the most recent, fully-covering bucket
}

func TestIntervalMapCollectAllIgnoresEarlyStop(t *testing.T) {
	m := NewIntervalMap[int]()
	m.Add(NewInterval(0, 4), 1)
	m.Add(NewInterval(2, 4), 2)

	values := m.CollectAll(NewInterval(0, 4))
	assert.ElementsMatch(t, []int{1, 2}, values)
}
