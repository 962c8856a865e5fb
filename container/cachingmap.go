package container

import "github.com/cespare/xxhash/v2"

const numShards = 16

// CachingMap is the "caching hash map" of spec §2 component 11: a memoizing
// key/value store, sharded by an xxhash digest of a caller-supplied key
// encoding. It is a standalone container: no other package of this module
// uses it.
type CachingMap[K comparable, V any] struct {
	keyBytes func(K) []byte
	shards   [numShards]map[K]V
}

// NewCachingMap returns an empty caching map. keyBytes must deterministically
// encode a key to bytes for hashing; it need not be injective (hash
// collisions only affect sharding, not correctness, since each shard is
// itself an exact map[K]V).
func NewCachingMap[K comparable, V any](keyBytes func(K) []byte) *CachingMap[K, V] {
	m := &CachingMap[K, V]{keyBytes: keyBytes}
	for i := range m.shards {
		m.shards[i] = make(map[K]V)
	}
	return m
}

func (m *CachingMap[K, V]) shardFor(k K) map[K]V {
	h := xxhash.Sum64(m.keyBytes(k))
	return m.shards[h%numShards]
}

// Get returns the cached value for k, if any.
func (m *CachingMap[K, V]) Get(k K) (V, bool) {
	v, ok := m.shardFor(k)[k]
	return v, ok
}

// Set stores v under k, overwriting any previous entry.
func (m *CachingMap[K, V]) Set(k K, v V) {
	m.shardFor(k)[k] = v
}

// GetOrCompute returns the cached value for k, computing and storing it via
// compute on a miss.
func (m *CachingMap[K, V]) GetOrCompute(k K, compute func() V) V {
	shard := m.shardFor(k)
	if v, ok := shard[k]; ok {
		return v
	}
	v := compute()
	shard[k] = v
	return v
}

// Len returns the total number of cached entries.
func (m *CachingMap[K, V]) Len() int {
	n := 0
	for _, shard := range m.shards {
		n += len(shard)
	}
	return n
}
