package chunk

import (
	"fmt"
	"sort"

	"github.com/apache/arrow-go/v18/arrow"

	"gastrolog/internal/component"
	"gastrolog/internal/entitypath"
	"gastrolog/internal/ids"
	"gastrolog/internal/timeline"
)

// ErrNonAscendingRowId means the RowId column handed to the Builder was not
// strictly ascending. Unlike the original rerun design, which resorts at
// build time, this store requires ingest call sites to hand rows in RowId
// order already — RowIds are generated in insertion order, so this only
// fires when a caller has assembled a chunk out of order, which is itself
// a bug worth surfacing rather than silently repairing.
var ErrNonAscendingRowId = fmt.Errorf("%w: row ids not strictly ascending", ErrMalformedChunk)

// TimeColumn is one timeline's worth of per-row time values, as handed to
// the Builder. Times[i] is meaningless when Valid is non-nil and
// Valid[i] is false.
type TimeColumn struct {
	Timeline timeline.Timeline
	Times    []int64
	Valid    []bool // nil means every row is valid on this timeline
}

// Builder assembles a Chunk from its columns. A Builder is single-use: call
// Build once and discard it.
type Builder struct {
	entity      entitypath.Path
	rowIds      []ids.RowId
	timeColumns []TimeColumn
	components  map[component.Descriptor]arrow.Array
}

// NewBuilder starts a Builder for rows belonging to entity.
func NewBuilder(entity entitypath.Path) *Builder {
	return &Builder{entity: entity, components: make(map[component.Descriptor]arrow.Array)}
}

// WithRowIds sets the chunk's RowId column. Required.
func (b *Builder) WithRowIds(rowIds []ids.RowId) *Builder {
	b.rowIds = rowIds
	return b
}

// WithTimeColumn adds one timeline's index column.
func (b *Builder) WithTimeColumn(tc TimeColumn) *Builder {
	b.timeColumns = append(b.timeColumns, tc)
	return b
}

// WithComponent adds one component's list-array column. values must be a
// list-typed Arrow array of length len(rowIds); the Builder treats it
// opaquely and never inspects the inner value type.
func (b *Builder) WithComponent(desc component.Descriptor, values arrow.Array) *Builder {
	b.components[desc] = values
	return b
}

// Build validates every invariant from the data model and, on success,
// returns a finished Chunk with a freshly assigned ChunkId. All returned
// errors wrap ErrMalformedChunk.
func (b *Builder) Build() (*Chunk, error) {
	n := len(b.rowIds)
	if n == 0 {
		return nil, fmt.Errorf("%w: zero rows", ErrMalformedChunk)
	}
	if len(b.timeColumns) == 0 && len(b.components) == 0 {
		return nil, fmt.Errorf("%w", ErrEmptyColumnSet)
	}

	for i := 1; i < n; i++ {
		if !b.rowIds[i-1].Less(b.rowIds[i]) {
			return nil, ErrNonAscendingRowId
		}
	}

	static := len(b.timeColumns) == 0
	if static && n != 1 {
		return nil, fmt.Errorf("%w: got %d rows", ErrStaticRowCount, n)
	}

	timelines := make([]timeline.Timeline, 0, len(b.timeColumns))
	timeColumns := make(map[string]timeColumnData, len(b.timeColumns))
	for _, tc := range b.timeColumns {
		if tc.Timeline.Type() < timeline.Sequence || tc.Timeline.Type() > timeline.DurationNs {
			return nil, fmt.Errorf("%w: %v", ErrUnknownTimelineType, tc.Timeline.Type())
		}
		if len(tc.Times) != n {
			return nil, fmt.Errorf("%w: timeline %s has %d times, want %d", ErrRowCountMismatch, tc.Timeline, len(tc.Times), n)
		}
		if tc.Valid != nil && len(tc.Valid) != n {
			return nil, fmt.Errorf("%w: timeline %s has %d validity flags, want %d", ErrRowCountMismatch, tc.Timeline, len(tc.Valid), n)
		}

		data, err := buildTimeColumn(tc)
		if err != nil {
			return nil, err
		}
		key := tc.Timeline.String()
		if _, dup := timeColumns[key]; dup {
			return nil, fmt.Errorf("%w: duplicate timeline column %s", ErrMalformedChunk, key)
		}
		timeColumns[key] = data
		timelines = append(timelines, tc.Timeline)
	}
	sort.Slice(timelines, func(i, j int) bool { return timelines[i].Less(timelines[j]) })

	descriptors := make([]component.Descriptor, 0, len(b.components))
	for desc, arr := range b.components {
		if arr.Len() != n {
			return nil, fmt.Errorf("%w: component %s has %d rows, want %d", ErrRowCountMismatch, desc, arr.Len(), n)
		}
		descriptors = append(descriptors, desc)
	}
	sort.Sort(component.ByLess(descriptors))

	rowIds := make([]ids.RowId, n)
	copy(rowIds, b.rowIds)

	var byteSize int64 = int64(n) * 16 // RowId column
	for _, tc := range timeColumns {
		byteSize += int64(len(tc.times)) * 8
	}
	for _, arr := range b.components {
		byteSize += approxByteSize(arr)
	}

	return &Chunk{
		id:          ids.NewChunkId(),
		entity:      b.entity,
		rowIds:      rowIds,
		timelines:   timelines,
		timeColumns: timeColumns,
		descriptors: descriptors,
		components:  b.components,
		static:      static,
		schemaHash:  computeSchemaHash(timelines, descriptors, b.components),
		byteSize:    byteSize,
	}, nil
}

func buildTimeColumn(tc TimeColumn) (timeColumnData, error) {
	n := len(tc.Times)
	if tc.Valid != nil {
		anyValid := false
		for _, v := range tc.Valid {
			if v {
				anyValid = true
				break
			}
		}
		if !anyValid {
			return timeColumnData{}, fmt.Errorf("%w: timeline %s", ErrNullOnlyColumn, tc.Timeline)
		}
	}

	lo, hi := timeline.TimeInt(timeline.MaxTemporal), timeline.TimeInt(timeline.MinTemporal)
	haveAny := false
	sorted := true
	lastValid := timeline.TimeInt(0)
	haveLast := false
	for i := 0; i < n; i++ {
		if tc.Valid != nil && !tc.Valid[i] {
			continue
		}
		t := timeline.Temporal(tc.Times[i])
		if !haveAny || t.Less(lo) {
			lo = t
		}
		if !haveAny || hi.Less(t) {
			hi = t
		}
		haveAny = true
		if haveLast && t.Less(lastValid) {
			sorted = false
		}
		lastValid = t
		haveLast = true
	}

	times := make([]int64, n)
	copy(times, tc.Times)
	var valid []bool
	if tc.Valid != nil {
		valid = make([]bool, n)
		copy(valid, tc.Valid)
	}

	return timeColumnData{
		tl:     tc.Timeline,
		times:  times,
		valid:  valid,
		min:    lo,
		max:    hi,
		sorted: sorted,
	}, nil
}
