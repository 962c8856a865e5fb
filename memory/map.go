package memory

import "github.com/progslice/pdg/dgraph"

// Map is a mapping Target-PSNode -> MemoryObject, attached as per-node data
// at one flow-sensitive program point (spec §3.2's MemoryMap). Maps are
// shared by reference between program points whenever a predecessor cannot
// change the map (spec §4.3); a writer must call CloneObjectForWrite before
// mutating the object it intends to write through, never mutate a shared
// Map's object in place.
type Map struct {
	objects map[dgraph.NodeID]*Object
}

// NewMap returns an empty memory map.
func NewMap() *Map {
	return &Map{objects: make(map[dgraph.NodeID]*Object)}
}

// Clone returns a new Map sharing every *Object pointer with m — a
// map-level, not object-level, copy. This is the cheap "share by reference"
// half of the copy-on-write discipline described in spec §5; the expensive
// half (cloning an individual Object before mutating it) is
// CloneObjectForWrite.
func (m *Map) Clone() *Map {
	clone := NewMap()
	for target, obj := range m.objects {
		clone.objects[target] = obj
	}
	return clone
}

// Get returns the memory object for target, if one exists in this map.
func (m *Map) Get(target dgraph.NodeID) (*Object, bool) {
	obj, ok := m.objects[target]
	return obj, ok
}

// Install records obj as the memory object for target, overwriting any
// previous entry. Used both to lazily create a fresh object and to install
// a clone produced by CloneObjectForWrite.
func (m *Map) Install(target dgraph.NodeID, obj *Object) {
	m.objects[target] = obj
}

// CloneObjectForWrite returns a private, mutable copy of target's memory
// object — creating an empty one first if target has none yet — and
// installs it in place of whatever (possibly shared) object was there
// before. Every write path in the flow-sensitive engines goes through this
// so that other Maps still sharing the old *Object are unaffected.
func (m *Map) CloneObjectForWrite(target dgraph.NodeID) *Object {
	existing, ok := m.objects[target]
	var clone *Object
	if ok {
		clone = existing.Clone()
	} else {
		clone = NewObject(target)
	}
	m.objects[target] = clone
	return clone
}

// Equal reports whether m and other hold the same memory object (by value,
// not by reference) for every target. Used by the flow-sensitive engines to
// test whether a node's outgoing map actually changed since the previous
// round, the condition the worklist driver needs to know whether to
// re-enqueue that node's CFG successors.
func (m *Map) Equal(other *Map) bool {
	if other == nil {
		return len(m.objects) == 0
	}
	if len(m.objects) != len(other.objects) {
		return false
	}
	for target, obj := range m.objects {
		otherObj, ok := other.objects[target]
		if !ok || !obj.Equal(otherObj) {
			return false
		}
	}
	return true
}

// Targets returns every target with a memory object recorded in this map.
func (m *Map) Targets() []dgraph.NodeID {
	out := make([]dgraph.NodeID, 0, len(m.objects))
	for t := range m.objects {
		out = append(out, t)
	}
	return out
}

// Union merges every object of other into m, unioning bucket-for-bucket
// where both maps already have an object for the same target. Used at CFG
// merge points — more than one predecessor — to build the merged map
// described in spec §4.3.
func (m *Map) Union(other *Map) {
	if other == nil {
		return
	}
	for target, obj := range other.objects {
		mine, ok := m.objects[target]
		if !ok {
			m.objects[target] = obj.Clone()
			continue
		}
		if mine == obj {
			continue // already the same object by reference; nothing to union
		}
		merged := mine.Clone()
		merged.unknown.Union(obj.unknown)
		for off, pts := range obj.perOffset {
			merged.AtOffset(off).Union(pts)
		}
		m.objects[target] = merged
	}
}
