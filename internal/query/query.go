// Package query implements the Query Engine: the latest-at and range
// contracts of §4.E, layered over the Chunk Store's Index and Static Table.
// Both entry points are pure functions over (store snapshot, query) — the
// Engine holds no query-local state between calls.
package query

import (
	"errors"
	"fmt"

	"gastrolog/internal/chunk"
	"gastrolog/internal/component"
	"gastrolog/internal/entitypath"
	"gastrolog/internal/index"
	"gastrolog/internal/statictable"
	"gastrolog/internal/timeline"
)

// ErrCorruptChunk is surfaced when a chunk reachable from an index or the
// static table fails an invariant check at read time. §7: fatal in tests,
// a warning in production. The Engine returns it as an error with an empty
// result for that call: the corrupt row is not skipped and no partial
// result is returned. Callers decide how to react.
var ErrCorruptChunk = errors.New("query: corrupt chunk encountered")

// SparseFill selects how LatestAt fills in components missing at the exact
// index point.
type SparseFill int

const (
	// FillNone emits only rows that materially exist at the index point.
	FillNone SparseFill = iota
	// FillLatestAtGlobal substitutes the latest-at row across the chosen
	// timeline for any requested component missing at the index point.
	FillLatestAtGlobal
)

// ViewContents selects, per entity path, which component descriptors a
// query should project. A nil descriptor slice for an entity means "no
// components" rather than "all" — the Engine never discovers descriptors
// on its own, since component contents (and therefore their universe) are
// explicitly unindexed (§1 Non-goals).
type ViewContents map[entitypath.Path][]component.Descriptor

// Engine answers latest-at and range queries against a Chunk Store's Index
// Manager and Static Table. It is safe for concurrent use; it holds no
// mutable state of its own.
type Engine struct {
	indexes *index.Manager
	statics *statictable.Table
}

// NewEngine returns an Engine reading from indexes and statics.
func NewEngine(indexes *index.Manager, statics *statictable.Table) *Engine {
	return &Engine{indexes: indexes, statics: statics}
}

// LatestAt implements §4.E's latest-at contract for one (entity, descriptor,
// timeline, at). It returns ok=false, with no error, if there is no row at
// or before at and no static fallback — an unknown entity or descriptor is
// not an error (§4.E "Failure semantics").
func (e *Engine) LatestAt(entity entitypath.Path, desc component.Descriptor, tl timeline.Timeline, at timeline.TimeInt) (chunk.Row, bool, error) {
	if idx, ok := e.indexes.Get(index.Key{Timeline: tl, Entity: entity}); ok {
		if row, ok := idx.LatestAt(desc, at); ok {
			if err := checkRow(row); err != nil {
				return chunk.Row{}, false, err
			}
			return row, true, nil
		}
	}

	uc, ok := e.statics.Get(entity, desc)
	if !ok {
		return chunk.Row{}, false, nil
	}
	row := uc.RowAt(desc, tl, 0)
	if err := checkRow(row); err != nil {
		return chunk.Row{}, false, err
	}
	return row, true, nil
}

// LatestAtView runs LatestAt once per (entity, descriptor) named in
// contents, applying fill to decide how to treat components missing at the
// exact index point. The result is keyed by entity then by descriptor,
// omitting entries FillNone would leave empty.
func (e *Engine) LatestAtView(contents ViewContents, tl timeline.Timeline, at timeline.TimeInt, fill SparseFill) (map[entitypath.Path]map[component.Descriptor]chunk.Row, error) {
	out := make(map[entitypath.Path]map[component.Descriptor]chunk.Row)
	for entity, descs := range contents {
		for _, desc := range descs {
			row, ok, err := e.LatestAt(entity, desc, tl, at)
			if err != nil {
				return nil, fmt.Errorf("latest-at view: entity %s desc %s: %w", entity, desc, err)
			}
			if !ok {
				continue
			}
			// LatestAt already answers "<= at"; FillLatestAtGlobal accepts
			// that directly, but FillNone additionally requires the row to
			// materially exist exactly at the index point.
			if fill == FillNone && row.Time.Compare(at) != 0 {
				continue
			}
			if out[entity] == nil {
				out[entity] = make(map[component.Descriptor]chunk.Row)
			}
			out[entity][desc] = row
		}
	}
	return out, nil
}

// Range implements §4.E's range contract for one (entity, descriptor,
// timeline, [lo, hi]). If a static row exists for (entity, desc), it is
// yielded first (at -∞, §4.C), followed by the temporal rows ordered by
// (time asc, RowId asc). A fresh call is the only way to restart iteration,
// matching the "not cloneable" requirement — the Engine hands back a
// snapshot rather than a stateful iterator.
func (e *Engine) Range(entity entitypath.Path, desc component.Descriptor, tl timeline.Timeline, lo, hi timeline.TimeInt) ([]chunk.Row, error) {
	var out []chunk.Row
	if uc, ok := e.statics.Get(entity, desc); ok {
		row := uc.RowAt(desc, tl, 0)
		if err := checkRow(row); err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	if idx, ok := e.indexes.Get(index.Key{Timeline: tl, Entity: entity}); ok {
		rows := idx.Range(desc, lo, hi)
		for _, row := range rows {
			if err := checkRow(row); err != nil {
				return nil, err
			}
		}
		out = append(out, rows...)
	}
	return out, nil
}

// RangeView runs Range once per (entity, descriptor) named in contents,
// returning results keyed the same way as LatestAtView.
func (e *Engine) RangeView(contents ViewContents, tl timeline.Timeline, lo, hi timeline.TimeInt) (map[entitypath.Path]map[component.Descriptor][]chunk.Row, error) {
	out := make(map[entitypath.Path]map[component.Descriptor][]chunk.Row)
	for entity, descs := range contents {
		for _, desc := range descs {
			rows, err := e.Range(entity, desc, tl, lo, hi)
			if err != nil {
				return nil, fmt.Errorf("range view: entity %s desc %s: %w", entity, desc, err)
			}
			if len(rows) == 0 {
				continue
			}
			if out[entity] == nil {
				out[entity] = make(map[component.Descriptor][]chunk.Row)
			}
			out[entity][desc] = rows
		}
	}
	return out, nil
}

func checkRow(row chunk.Row) error {
	if row.Value != nil && row.Value.Len() != 1 {
		return fmt.Errorf("%w: row %s has a %d-element value slice, want 1", ErrCorruptChunk, row.RowId, row.Value.Len())
	}
	return nil
}
