// Package chunk implements the Chunk: the immutable, Arrow-native unit of
// storage and transfer for one entity's rows. A Chunk owns a RowId column,
// zero or more timeline index columns, and one list-array column per
// component descriptor it carries. Chunks never hold a back-reference to
// the store or index that owns them; they are shared by reference and
// sliced, never mutated, once built.
package chunk

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/cespare/xxhash/v2"

	"gastrolog/internal/component"
	"gastrolog/internal/entitypath"
	"gastrolog/internal/ids"
	"gastrolog/internal/timeline"
)

// timeColumnData is one timeline's worth of per-row time values. Valid is
// nil when every row carries a time on this timeline; otherwise Valid[i]
// false means row i has no time on this timeline (it is still present in
// the chunk, just silent on this axis).
type timeColumnData struct {
	tl    timeline.Timeline
	times []int64
	valid []bool
	min   timeline.TimeInt
	max   timeline.TimeInt
	// sorted reports whether the valid times, taken in row order, are
	// non-decreasing. Reported through IsSortedOn.
	sorted bool
}

func (c timeColumnData) at(i int) (timeline.TimeInt, bool) {
	if c.valid != nil && !c.valid[i] {
		return timeline.TimeInt(0), false
	}
	return timeline.Temporal(c.times[i]), true
}

// Chunk is an immutable batch of rows for a single entity path, sorted by
// RowId. A Chunk is either static (zero timeline columns, exactly one row,
// effective for all time) or temporal (one or more timeline columns, any
// number of rows).
type Chunk struct {
	id     ids.ChunkId
	entity entitypath.Path
	rowIds []ids.RowId

	timelines   []timeline.Timeline // ascending per timeline.Less
	timeColumns map[string]timeColumnData

	descriptors []component.Descriptor // ascending per component.Less
	components  map[component.Descriptor]arrow.Array

	static     bool
	schemaHash uint64
	byteSize   int64
}

// Id returns the chunk's identity, assigned fresh at build time.
func (c *Chunk) Id() ids.ChunkId { return c.id }

// EntityPath returns the entity path every row in the chunk belongs to.
func (c *Chunk) EntityPath() entitypath.Path { return c.entity }

// Len returns the number of rows.
func (c *Chunk) Len() int { return len(c.rowIds) }

// IsStatic reports whether the chunk carries no timeline columns.
func (c *Chunk) IsStatic() bool { return c.static }

// RowId returns the RowId of row i.
func (c *Chunk) RowId(i int) ids.RowId { return c.rowIds[i] }

// Timelines returns the timelines this chunk carries an index column for,
// ascending per timeline.Less. Empty for a static chunk.
func (c *Chunk) Timelines() []timeline.Timeline { return c.timelines }

// HasTimeline reports whether the chunk carries an index column for tl.
func (c *Chunk) HasTimeline(tl timeline.Timeline) bool {
	_, ok := c.timeColumns[tl.String()]
	return ok
}

// Time returns the time of row i on tl, and whether row i carries a time on
// tl at all. For a static chunk, or a timeline the chunk does not carry,
// Time always returns (timeline.Static(), false).
func (c *Chunk) Time(tl timeline.Timeline, i int) (timeline.TimeInt, bool) {
	tc, ok := c.timeColumns[tl.String()]
	if !ok {
		return timeline.Static(), false
	}
	return tc.at(i)
}

// MinMax returns the minimum and maximum time the chunk carries on tl over
// rows that have a time on it, and whether tl is present at all (false for
// an absent timeline, which differs from a present-but-entirely-null one —
// Build rejects the latter with ErrNullOnlyColumn).
func (c *Chunk) MinMax(tl timeline.Timeline) (lo, hi timeline.TimeInt, ok bool) {
	tc, ok := c.timeColumns[tl.String()]
	if !ok {
		return timeline.TimeInt(0), timeline.TimeInt(0), false
	}
	return tc.min, tc.max, true
}

// IsSortedOn reports whether tl's time column, read in row order and
// skipping rows with no time on tl, is non-decreasing. The index does not
// read it: bucket range reads sort their collected rows every time.
func (c *Chunk) IsSortedOn(tl timeline.Timeline) bool {
	tc, ok := c.timeColumns[tl.String()]
	return ok && tc.sorted
}

// Descriptors returns the component descriptors this chunk carries a
// column for, ascending per component.Less.
func (c *Chunk) Descriptors() []component.Descriptor { return c.descriptors }

// HasComponent reports whether the chunk carries a column for desc.
func (c *Chunk) HasComponent(desc component.Descriptor) bool {
	_, ok := c.components[desc]
	return ok
}

// Component returns the full list-array column for desc, or (nil, false) if
// the chunk does not carry it. The returned array must not be mutated; it
// may be shared with other readers.
func (c *Chunk) Component(desc component.Descriptor) (arrow.Array, bool) {
	arr, ok := c.components[desc]
	return arr, ok
}

// SchemaHash returns a stable hash of the chunk's column layout: its
// timelines and component descriptors, together with each column's Arrow
// type. Two chunks with equal SchemaHash can be concatenated or compared
// column-for-column without a reconciliation pass.
func (c *Chunk) SchemaHash() uint64 { return c.schemaHash }

// ByteSize returns an estimate of the chunk's in-memory size, summing the
// buffers backing the RowId, timeline, and component columns. Used by the
// index's bucket-size cap and the store's GC byte-budget.
func (c *Chunk) ByteSize() int64 { return c.byteSize }

// String renders a short human-readable summary, not the chunk's contents.
func (c *Chunk) String() string {
	kind := "temporal"
	if c.static {
		kind = "static"
	}
	return fmt.Sprintf("chunk(%s, %s, entity=%s, rows=%d, %s)", c.id, kind, c.entity, len(c.rowIds), kind)
}

func computeSchemaHash(timelines []timeline.Timeline, descriptors []component.Descriptor, components map[component.Descriptor]arrow.Array) uint64 {
	h := xxhash.New()
	for _, tl := range timelines {
		_, _ = h.WriteString(tl.String())
		_, _ = h.Write([]byte{0})
	}
	_, _ = h.Write([]byte{0xff})
	for _, desc := range descriptors {
		_, _ = h.WriteString(desc.String())
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(components[desc].DataType().String())
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}

func dataByteSize(d arrow.ArrayData) int64 {
	var total int64
	for _, buf := range d.Buffers() {
		if buf != nil {
			total += int64(buf.Len())
		}
	}
	for _, child := range d.Children() {
		total += dataByteSize(child)
	}
	return total
}

func approxByteSize(arr arrow.Array) int64 { return dataByteSize(arr.Data()) }
