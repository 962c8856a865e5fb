// Package memory implements the pointer analysis's mutable store (spec §2
// component 5): a MemoryObject maps byte offsets within one allocation to
// points-to sets, and a MemoryMap maps allocations (targets) to their
// MemoryObject at one flow-sensitive program point.
package memory

import (
	"github.com/progslice/pdg/dgraph"
	"github.com/progslice/pdg/offset"
	"github.com/progslice/pdg/ptset"
)

// Object is a mapping Offset -> PointsToSet for a single allocation
// (spec §3.2's MemoryObject). A write at offset.Unknown is a whole-object
// write: it is tracked in its own bucket and unioned into every concrete
// read, matching spec §4.4's Load rule ("union the set at offset o and the
// set at offset Unknown").
type Object struct {
	Origin dgraph.NodeID

	perOffset map[offset.Offset]*ptset.Set[dgraph.NodeID]
	unknown   *ptset.Set[dgraph.NodeID]
}

// NewObject returns an empty memory object rooted at the given allocation
// node.
func NewObject(origin dgraph.NodeID) *Object {
	return &Object{
		Origin:    origin,
		perOffset: make(map[offset.Offset]*ptset.Set[dgraph.NodeID]),
		unknown:   ptset.New[dgraph.NodeID](),
	}
}

// Clone returns a deep copy of o, safe to mutate independently. Used by the
// flow-sensitive engines' copy-on-write discipline: a writer clones the
// MemoryObject before mutating it so that predecessors still sharing the
// old MemoryMap observe the pre-write state (spec §5 "a writer must clone
// before mutating").
func (o *Object) Clone() *Object {
	clone := NewObject(o.Origin)
	clone.unknown.Union(o.unknown)
	for off, pts := range o.perOffset {
		fresh := ptset.New[dgraph.NodeID]()
		fresh.Union(pts)
		clone.perOffset[off] = fresh
	}
	return clone
}

// AtOffset returns the points-to set stored exactly at off, creating an
// empty one if absent. Does not include the Unknown bucket; callers that
// want the "what does a read at off see" semantics should use ReadAt.
func (o *Object) AtOffset(off offset.Offset) *ptset.Set[dgraph.NodeID] {
	if off.IsUnknown() {
		return o.unknown
	}
	pts, ok := o.perOffset[off]
	if !ok {
		pts = ptset.New[dgraph.NodeID]()
		o.perOffset[off] = pts
	}
	return pts
}

// ReadAt implements spec §4.4's Load offset rule: reading at a concrete
// offset sees that offset's bucket unioned with the Unknown (whole-object)
// bucket; reading at Unknown sees every bucket, concrete and whole-object
// alike.
func (o *Object) ReadAt(off offset.Offset) *ptset.Set[dgraph.NodeID] {
	result := ptset.New[dgraph.NodeID]()
	if off.IsUnknown() {
		result.Union(o.unknown)
		for _, pts := range o.perOffset {
			result.Union(pts)
		}
		return result
	}
	result.Union(o.unknown)
	if pts, ok := o.perOffset[off]; ok {
		result.Union(pts)
	}
	return result
}

// WriteAt unions src into the bucket at off (weak update: spec §4.4's
// Store semantics, which always unions). Strong update — replacing rather
// than unioning — is done by OverwriteAt, not by WriteAt.
func (o *Object) WriteAt(off offset.Offset, src *ptset.Set[dgraph.NodeID]) bool {
	return o.AtOffset(off).Union(src)
}

// OverwriteAt implements a strong update at a concrete, precisely-known
// offset: the existing bucket at off is discarded and replaced by src.
// Panics if off is Unknown — a strong update over an unknown-offset write
// only makes sense under the strong_update_unknown option (spec §4.5 step
// 1b / §6.6), which the caller must apply separately by checking allocation
// size itself; OverwriteAt never guesses.
func (o *Object) OverwriteAt(off offset.Offset, src *ptset.Set[dgraph.NodeID]) {
	if off.IsUnknown() {
		panic("memory: OverwriteAt requires a concrete offset")
	}
	fresh := ptset.New[dgraph.NodeID]()
	fresh.Union(src)
	o.perOffset[off] = fresh
}

// Rewrite replaces every occurrence of oldTarget across every bucket
// (concrete and Unknown) with a points-to pair at newTarget, preserving the
// original offset of each replaced pair. Used by the FS+invalidation engine
// to implement "references to invalidated allocations are replaced with the
// special Invalidated marker" (spec §4.3).
func (o *Object) Rewrite(oldTarget, newTarget dgraph.NodeID, newOffset offset.Offset, strong bool) {
	rewriteSet := func(s *ptset.Set[dgraph.NodeID]) *ptset.Set[dgraph.NodeID] {
		if !s.PointsToTarget(oldTarget) {
			return s
		}
		if strong {
			fresh := ptset.New[dgraph.NodeID]()
			s.Each(func(t dgraph.NodeID, o offset.Offset) {
				if t != oldTarget {
					fresh.Add(t, o)
				}
			})
			fresh.Add(newTarget, newOffset)
			return fresh
		}
		s.Add(newTarget, newOffset)
		return s
	}
	o.unknown = rewriteSet(o.unknown)
	for off, pts := range o.perOffset {
		o.perOffset[off] = rewriteSet(pts)
	}
}

// Equal reports whether o and other hold the same points-to set at every
// offset, including the Unknown bucket. Used by the flow-sensitive engines
// to detect that a node's outgoing memory state stopped changing, the
// per-object half of the driver's fixpoint test.
func (o *Object) Equal(other *Object) bool {
	if !o.unknown.Equal(other.unknown) {
		return false
	}
	seen := make(map[offset.Offset]bool, len(o.perOffset))
	for off, pts := range o.perOffset {
		seen[off] = true
		otherPts, ok := other.perOffset[off]
		if !ok {
			if pts.Len() != 0 {
				return false
			}
			continue
		}
		if !pts.Equal(otherPts) {
			return false
		}
	}
	for off, pts := range other.perOffset {
		if seen[off] {
			continue
		}
		if pts.Len() != 0 {
			return false
		}
	}
	return true
}

// Offsets returns every concrete offset with a non-empty bucket.
func (o *Object) Offsets() []offset.Offset {
	offs := make([]offset.Offset, 0, len(o.perOffset))
	for off, pts := range o.perOffset {
		if pts.Len() == 0 {
			continue
		}
		offs = append(offs, off)
	}
	return offs
}
