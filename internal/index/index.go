// Package index implements the per-(timeline, entity) bucketed time index
// described in §4.C: an ordered sequence of buckets, each holding Chunk
// references plus a cached time envelope, supporting a binary-search
// latest-at lookup and a merge-sorted range scan. Range returns its rows as
// one fully built slice, not as a lazy sequence.
package index

import (
	"sort"
	"sync"

	"gastrolog/internal/chunk"
	"gastrolog/internal/component"
	"gastrolog/internal/entitypath"
	"gastrolog/internal/ids"
	"gastrolog/internal/timeline"
)

// Key identifies one Index instance.
type Key struct {
	Timeline timeline.Timeline
	Entity   entitypath.Path
}

// Manager owns the set of live per-(timeline, entity) Indexes, created
// lazily on first insert. Grounded on index/index.go's ManagerFactory
// convention — narrowed here to a concrete type since the store needs
// exactly one index shape, not a pluggable backend.
type Manager struct {
	mu       sync.RWMutex
	indexes  map[Key]*Index
	maxRows  int
	maxBytes int64
}

// NewManager returns a Manager whose Indexes split buckets past maxRows
// rows or maxBytes bytes, whichever comes first. A zero maxRows or
// maxBytes disables that cap.
func NewManager(maxRows int, maxBytes int64) *Manager {
	return &Manager{indexes: make(map[Key]*Index), maxRows: maxRows, maxBytes: maxBytes}
}

// GetOrCreate returns the Index for key, creating it if absent.
func (m *Manager) GetOrCreate(key Key) *Index {
	m.mu.RLock()
	idx, ok := m.indexes[key]
	m.mu.RUnlock()
	if ok {
		return idx
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if idx, ok := m.indexes[key]; ok {
		return idx
	}
	idx = &Index{key: key, maxRows: m.maxRows, maxBytes: m.maxBytes}
	m.indexes[key] = idx
	return idx
}

// Get returns the Index for key without creating it.
func (m *Manager) Get(key Key) (*Index, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.indexes[key]
	return idx, ok
}

// Keys returns every live (timeline, entity) key, in no particular order.
func (m *Manager) Keys() []Key {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]Key, 0, len(m.indexes))
	for k := range m.indexes {
		keys = append(keys, k)
	}
	return keys
}

// Delete removes the Index for key entirely (used by GC's
// gc_purge_empty_tables option once an Index has no chunks left).
func (m *Manager) Delete(key Key) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.indexes, key)
}

// Index is the ordered sequence of buckets for one (timeline, entity) pair.
// All mutation and lookup goes through one mutex: §5 calls for "per-
// (timeline, entity) locks with write priority on insert and read priority
// on query", which a single sync.RWMutex gives directly (writers block all
// readers as usual, but Go's RWMutex doesn't starve writers behind a
// continuous stream of readers the way a naive reader-preference lock
// would).
type Index struct {
	mu       sync.RWMutex
	key      Key
	buckets  []*bucket // ascending by minTime; may overlap after a split
	maxRows  int
	maxBytes int64
}

func (idx *Index) Key() Key { return idx.key }

// Insert registers c into the matching bucket, creating the first bucket if
// the Index is empty, then splits that bucket if it now exceeds the
// configured caps.
func (idx *Index) Insert(c *chunk.Chunk) {
	lo, hi, ok := c.MinMax(idx.key.Timeline)
	if !ok {
		return // c does not carry this timeline; nothing to index
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	b := idx.bucketFor(lo)
	if b == nil {
		b = newBucket()
		idx.buckets = append(idx.buckets, b)
		sort.Slice(idx.buckets, func(i, j int) bool { return idx.buckets[i].minTime.Less(idx.buckets[j].minTime) })
		b = idx.bucketFor(lo)
	}
	b.append(c, lo, hi)

	if idx.overCap(b) {
		idx.splitBucket(b)
	}
}

// bucketFor returns the bucket responsible for time t: the last bucket
// whose minTime <= t, or the first bucket if t precedes every bucket.
func (idx *Index) bucketFor(t timeline.TimeInt) *bucket {
	if len(idx.buckets) == 0 {
		return nil
	}
	i := sort.Search(len(idx.buckets), func(i int) bool { return t.Less(idx.buckets[i].minTime) })
	if i == 0 {
		return idx.buckets[0]
	}
	return idx.buckets[i-1]
}

func (idx *Index) overCap(b *bucket) bool {
	if idx.maxRows > 0 && b.rows > idx.maxRows {
		return true
	}
	if idx.maxBytes > 0 && b.bytes > idx.maxBytes {
		return true
	}
	return false
}

// LatestAt implements §4.C's latest-at algorithm steps 1-3 for a specific
// component descriptor (the Static Table fallback in step 4 is the Chunk
// Store's job, since the Index has no visibility into the Static Table).
func (idx *Index) LatestAt(desc component.Descriptor, at timeline.TimeInt) (chunk.Row, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	b := idx.bucketFor(at)
	if b == nil {
		return chunk.Row{}, false
	}
	return b.latestAt(idx.key.Timeline, desc, at)
}

// Range implements §4.C's range algorithm: select every bucket whose
// envelope intersects [lo, hi] and merge their rows by (time, RowId). The
// per-bucket lists are already sorted, so the cross-bucket merge is a
// K-way heap merge rather than a full re-sort of everything.
func (idx *Index) Range(desc component.Descriptor, lo, hi timeline.TimeInt) []chunk.Row {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var lists [][]chunk.Row
	for _, b := range idx.buckets {
		if b.maxTime.Less(lo) || hi.Less(b.minTime) {
			continue
		}
		if rows := b.rangeRows(idx.key.Timeline, desc, lo, hi); len(rows) > 0 {
			lists = append(lists, rows)
		}
	}
	return mergeSortedRows(lists)
}

// Remove drops every reference to the chunk identified by id from this
// Index, pruning any bucket left empty. Used by the Chunk Store's GC pass;
// it is a no-op (zero returns) if id is not present in this Index at all.
func (idx *Index) Remove(id ids.ChunkId) (rowsRemoved int, bytesRemoved int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	kept := idx.buckets[:0]
	for _, b := range idx.buckets {
		r, byt := b.removeChunk(id, idx.key.Timeline)
		rowsRemoved += r
		bytesRemoved += byt
		if len(b.chunks) > 0 {
			kept = append(kept, b)
		}
	}
	idx.buckets = kept
	return rowsRemoved, bytesRemoved
}

// Empty reports whether this Index currently holds no chunks at all, for
// gc_purge_empty_tables.
func (idx *Index) Empty() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.buckets) == 0
}

// ProtectLatest walks the buckets newest-envelope-first and, within each,
// their chunks in reverse insertion order, accumulating rows until at least
// protectLatest rows have been counted. Every chunk visited along the way is
// reported as protected in full: GC's deletion granularity is the whole
// chunk, so a chunk that contributes even one row to the protected count
// cannot be partially retained (§4.B "last N rows... retained", read at
// chunk granularity since the store never splits a chunk to satisfy GC).
func (idx *Index) ProtectLatest(protectLatest int) map[ids.ChunkId]bool {
	protected := make(map[ids.ChunkId]bool)
	if protectLatest <= 0 {
		return protected
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	buckets := make([]*bucket, len(idx.buckets))
	copy(buckets, idx.buckets)
	sort.Slice(buckets, func(i, j int) bool { return buckets[j].maxTime.Less(buckets[i].maxTime) })

	counted := 0
	for _, b := range buckets {
		for i := len(b.chunks) - 1; i >= 0; i-- {
			if counted >= protectLatest {
				return protected
			}
			c := b.chunks[i]
			if !protected[c.Id()] {
				protected[c.Id()] = true
				counted += c.Len()
			}
		}
	}
	return protected
}
