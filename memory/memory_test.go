package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/progslice/pdg/dgraph"
	"github.com/progslice/pdg/offset"
	"github.com/progslice/pdg/ptset"
)

func TestObjectReadWriteAt(t *testing.T) {
	obj := NewObject(dgraph.NodeID(1))
	v := ptset.New[dgraph.NodeID]()
	v.Add(dgraph.NodeID(42), offset.Offset(0))

	obj.WriteAt(offset.Offset(8), v)
	got := obj.ReadAt(offset.Offset(8))
	assert.True(t, got.Contains(dgraph.NodeID(42), offset.Offset(0)))

	// A read at a different concrete offset does not see it.
	other := obj.ReadAt(offset.Offset(16))
	assert.Equal(t, 0, other.Len())
}

func TestObjectUnknownWriteSeenByEveryRead(t *testing.T) {
	obj := NewObject(dgraph.NodeID(1))
	v := ptset.New[dgraph.NodeID]()
	v.Add(dgraph.NodeID(7), offset.Offset(0))
	obj.WriteAt(offset.Unknown, v)

	assert.True(t, obj.ReadAt(offset.Offset(0)).Contains(dgraph.NodeID(7), offset.Offset(0)))
	assert.True(t, obj.ReadAt(offset.Offset(999)).Contains(dgraph.NodeID(7), offset.Offset(0)))
}

func TestObjectCloneIsIndependent(t *testing.T) {
	obj := NewObject(dgraph.NodeID(1))
	v := ptset.New[dgraph.NodeID]()
	v.Add(dgraph.NodeID(1), offset.Offset(0))
	obj.WriteAt(offset.Offset(0), v)

	clone := obj.Clone()
	v2 := ptset.New[dgraph.NodeID]()
	v2.Add(dgraph.NodeID(2), offset.Offset(0))
	clone.WriteAt(offset.Offset(0), v2)

	assert.False(t, obj.ReadAt(offset.Offset(0)).Contains(dgraph.NodeID(2), offset.Offset(0)), "mutating the clone must not affect the original")
}

func TestObjectOverwriteAtStrongUpdate(t *testing.T) {
	obj := NewObject(dgraph.NodeID(1))
	v1 := ptset.New[dgraph.NodeID]()
	v1.Add(dgraph.NodeID(1), offset.Offset(0))
	obj.WriteAt(offset.Offset(0), v1)

	v2 := ptset.New[dgraph.NodeID]()
	v2.Add(dgraph.NodeID(2), offset.Offset(0))
	obj.OverwriteAt(offset.Offset(0), v2)

	got := obj.ReadAt(offset.Offset(0))
	assert.False(t, got.Contains(dgraph.NodeID(1), offset.Offset(0)), "strong update must discard the old value")
	assert.True(t, got.Contains(dgraph.NodeID(2), offset.Offset(0)))
}

func TestMapCloneObjectForWriteIsolatesPredecessors(t *testing.T) {
	base := NewMap()
	alloc := dgraph.NodeID(1)
	v := ptset.New[dgraph.NodeID]()
	v.Add(dgraph.NodeID(9), offset.Offset(0))
	base.CloneObjectForWrite(alloc).WriteAt(offset.Offset(0), v)

	shared := base.Clone() // predecessor map, sharing the *Object by reference

	writer := shared.CloneObjectForWrite(alloc)
	v2 := ptset.New[dgraph.NodeID]()
	v2.Add(dgraph.NodeID(10), offset.Offset(0))
	writer.WriteAt(offset.Offset(8), v2)

	baseObj, _ := base.Get(alloc)
	assert.Empty(t, baseObj.ReadAt(offset.Offset(8)).Targets(), "writing through the clone must not mutate the original map's object")
}

func TestMapUnionMergesBuckets(t *testing.T) {
	a := NewMap()
	alloc := dgraph.NodeID(5)
	va := ptset.New[dgraph.NodeID]()
	va.Add(dgraph.NodeID(1), offset.Offset(0))
	a.CloneObjectForWrite(alloc).WriteAt(offset.Offset(0), va)

	b := NewMap()
	vb := ptset.New[dgraph.NodeID]()
	vb.Add(dgraph.NodeID(2), offset.Offset(0))
	b.CloneObjectForWrite(alloc).WriteAt(offset.Offset(0), vb)

	a.Union(b)
	obj, ok := a.Get(alloc)
	assert.True(t, ok)
	got := obj.ReadAt(offset.Offset(0))
	assert.True(t, got.Contains(dgraph.NodeID(1), offset.Offset(0)))
	assert.True(t, got.Contains(dgraph.NodeID(2), offset.Offset(0)))
}
