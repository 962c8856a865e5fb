package container

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitVector(t *testing.T) {
	b := NewBitVector(8)
	b.Set(3)
	b.Set(100) // beyond initial capacity, must grow
	assert.True(t, b.Test(3))
	assert.True(t, b.Test(100))
	assert.False(t, b.Test(4))
	assert.EqualValues(t, 2, b.Count())

	var seen []uint
	b.Each(func(i uint) { seen = append(seen, i) })
	assert.Equal(t, []uint{3, 100}, seen)
}

func TestBitVectorUnion(t *testing.T) {
	a := NewBitVector(8)
	a.Set(1)
	b := NewBitVector(8)
	b.Set(2)
	a.Union(b)
	assert.True(t, a.Test(1))
	assert.True(t, a.Test(2))
}

func TestNumberSet(t *testing.T) {
	n := NewNumberSet(1, 2, 3)
	assert.Equal(t, 3, n.Len())
	assert.True(t, n.Has(2))
	assert.True(t, n.Remove(2))
	assert.False(t, n.Has(2))

	other := NewNumberSet(5, 6)
	n.UnionWith(other)
	assert.Equal(t, 4, n.Len())
}

func TestCachingMap(t *testing.T) {
	keyBytes := func(k int) []byte {
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(k))
		return buf
	}
	m := NewCachingMap[int, string](keyBytes)
	calls := 0
	compute := func() string {
		calls++
		return "computed"
	}

	v := m.GetOrCompute(42, compute)
	assert.Equal(t, "computed", v)
	assert.Equal(t, 1, calls)

	v = m.GetOrCompute(42, compute)
	assert.Equal(t, "computed", v)
	assert.Equal(t, 1, calls, "second call must hit the cache")
	assert.Equal(t, 1, m.Len())
}
