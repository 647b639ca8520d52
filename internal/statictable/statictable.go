// Package statictable implements the Static Table: a map from
// (entity, descriptor) to the single UnitChunk that applies "for all time"
// on that column.
package statictable

import (
	"sync"

	"gastrolog/internal/chunk"
	"gastrolog/internal/component"
	"gastrolog/internal/entitypath"
)

type key struct {
	entity entitypath.Path
	desc   component.Descriptor
}

// Table is a single map under one mutex: Static Table has no secondary
// index, unlike the Chunk Store's per-(timeline, entity) Index.
type Table struct {
	mu   sync.RWMutex
	rows map[key]chunk.UnitChunk
}

// New returns an empty Table.
func New() *Table {
	return &Table{rows: make(map[key]chunk.UnitChunk)}
}

// Upsert inserts c, keyed by (entity, desc), replacing any existing row iff
// c's RowId is strictly greater than the stored one (§4.D: "a larger RowId
// always wins"). Reports whether the store changed.
func (t *Table) Upsert(entity entitypath.Path, desc component.Descriptor, c chunk.UnitChunk) bool {
	k := key{entity: entity, desc: desc}

	t.mu.Lock()
	defer t.mu.Unlock()

	existing, ok := t.rows[k]
	if ok && !existing.RowId(0).Less(c.RowId(0)) {
		return false
	}
	t.rows[k] = c
	return true
}

// Get returns the static row for (entity, desc), if any.
func (t *Table) Get(entity entitypath.Path, desc component.Descriptor) (chunk.UnitChunk, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.rows[key{entity: entity, desc: desc}]
	return c, ok
}

// Delete removes the static row for (entity, desc), if any, returning the
// bytes reclaimed (0 when there was no row). Nothing in the store calls it:
// GC never drops static rows (§6 protection rule ii).
func (t *Table) Delete(entity entitypath.Path, desc component.Descriptor) int64 {
	k := key{entity: entity, desc: desc}

	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.rows[k]
	if !ok {
		return 0
	}
	delete(t.rows, k)
	return c.ByteSize()
}

// Len returns the number of static rows currently stored.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Range calls fn for every static row. fn must not call back into the
// Table.
func (t *Table) Range(fn func(entity entitypath.Path, desc component.Descriptor, c chunk.UnitChunk)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for k, c := range t.rows {
		fn(k.entity, k.desc, c)
	}
}
