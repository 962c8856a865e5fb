package ptset

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/progslice/pdg/offset"
)

func TestCollapseRule(t *testing.T) {
	s := New[int]()
	assert.True(t, s.Add(1, offset.Offset(4)))
	assert.True(t, s.Add(1, offset.Offset(8)))
	assert.Equal(t, 2, s.Len())

	assert.True(t, s.Add(1, offset.Unknown))
	assert.Equal(t, 1, s.Len(), "collapsing to Unknown must drop concrete offsets")
	assert.True(t, s.Contains(1, offset.Offset(4)), "a concrete offset is subsumed by the collapsed (1, Unknown) pair")
	assert.True(t, s.Contains(1, offset.Unknown))

	// Once collapsed, concrete re-adds must not re-expand the set.
	assert.False(t, s.Add(1, offset.Offset(99)))
	assert.Equal(t, 1, s.Len())
}

func TestMustPointTo(t *testing.T) {
	s := New[string]()
	_, _, ok := s.MustPointTo()
	assert.False(t, ok)

	s.Add("a", offset.Offset(0))
	target, off, ok := s.MustPointTo()
	assert.True(t, ok)
	assert.Equal(t, "a", target)
	assert.Equal(t, offset.Offset(0), off)

	s.Add("b", offset.Offset(0))
	_, _, ok = s.MustPointTo()
	assert.False(t, ok, "no longer a singleton")
}

func TestMustPointToRejectsUnknownOffset(t *testing.T) {
	s := New[string]()
	s.Add("a", offset.Unknown)
	_, _, ok := s.MustPointTo()
	assert.False(t, ok)
}

func TestUnionRespectsCollapse(t *testing.T) {
	a := New[int]()
	a.Add(1, offset.Offset(4))

	b := New[int]()
	b.Add(1, offset.Unknown)

	changed := a.Union(b)
	assert.True(t, changed)
	assert.Equal(t, 1, a.Len())
	assert.True(t, a.Contains(1, offset.Unknown))
}

func TestPointsToTarget(t *testing.T) {
	s := New[int]()
	assert.False(t, s.PointsToTarget(5))
	s.Add(5, offset.Offset(3))
	assert.True(t, s.PointsToTarget(5))
}
