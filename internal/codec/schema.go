// Package codec implements the Chunk Codec (§4.F, §6): the bit-exact
// Arrow record-batch encoding for a Chunk, and the migration container
// format that wraps a stream of encoded chunks for persistence or
// transfer.
package codec

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"gastrolog/internal/chunk"
	"gastrolog/internal/component"
	"gastrolog/internal/entitypath"
	"gastrolog/internal/ids"
	"gastrolog/internal/timeline"
)

// Metadata keys required on every encoded chunk's schema (§6).
const (
	MetaId                 = "rerun:id"
	MetaEntityPath         = "rerun:entity_path"
	MetaIsSorted           = "rerun:is_sorted"
	MetaHeapSizeBytes      = "rerun:heap_size_bytes"
	MetaKind               = "rerun:kind"
	MetaTimeline           = "rerun:timeline"
	MetaComponentArchetype = "rerun:component_archetype"
	MetaComponentField     = "rerun:component_field"
	MetaComponentName      = "rerun:component_name"
	KindChunk              = "chunk"
	fieldRowId             = "RowId"
	rowIdByteWidth         = 16
)

var fixedSizeBinary16 = &arrow.FixedSizeBinaryType{ByteWidth: rowIdByteWidth}

// RecordOf builds the arrow.Record and arrow.Schema §6 prescribes for c:
// RowId, then one int64 column per timeline (ascending name-then-type),
// then one list-array column per component (ascending
// archetype/field/component), omitting any component column that is
// entirely null. The returned Record borrows c's component arrays by
// reference; callers must not mutate them.
func RecordOf(mem memory.Allocator, c *chunk.Chunk) (arrow.Record, error) {
	n := c.Len()

	rowIdArr, err := buildRowIdColumn(mem, c)
	if err != nil {
		return nil, err
	}

	fields := []arrow.Field{{Name: fieldRowId, Type: fixedSizeBinary16}}
	cols := []arrow.Array{rowIdArr}

	for _, tl := range c.Timelines() {
		arr := buildTimeColumn(mem, c, tl, n)
		fields = append(fields, arrow.Field{
			Name:     tl.String(),
			Type:     arrow.PrimitiveTypes.Int64,
			Nullable: true,
			Metadata: arrow.NewMetadata([]string{MetaTimeline}, []string{tl.String()}),
		})
		cols = append(cols, arr)
	}

	for _, desc := range c.Descriptors() {
		arr, ok := c.Component(desc)
		if !ok {
			continue
		}
		if arr.NullN() == arr.Len() {
			// §6: "Chunks with only null component columns must omit
			// those columns."
			continue
		}
		fields = append(fields, arrow.Field{
			Name:     desc.String(),
			Type:     arr.DataType(),
			Nullable: true,
			// The column name alone is not a bijective encoding of desc:
			// Descriptor.String omits empty positional slots, so e.g.
			// {Archetype:"a",Component:"c"} and {Field:"a",Component:"c"}
			// both render "a:c". The three parts are carried here instead
			// of being re-derived from the name on decode.
			Metadata: arrow.NewMetadata(
				[]string{MetaComponentArchetype, MetaComponentField, MetaComponentName},
				[]string{desc.Archetype, desc.Field, desc.Component},
			),
		})
		cols = append(cols, arr)
	}

	meta := arrow.NewMetadata(
		[]string{MetaId, MetaEntityPath, MetaIsSorted, MetaHeapSizeBytes, MetaKind},
		[]string{c.Id().String(), c.EntityPath().String(), "true", fmt.Sprintf("%d", c.ByteSize()), KindChunk},
	)
	schema := arrow.NewSchema(fields, &meta)

	return array.NewRecord(schema, cols, int64(n)), nil
}

func buildRowIdColumn(mem memory.Allocator, c *chunk.Chunk) (arrow.Array, error) {
	b := array.NewFixedSizeBinaryBuilder(mem, fixedSizeBinary16)
	defer b.Release()
	for i := 0; i < c.Len(); i++ {
		rid := c.RowId(i)
		b.Append(rid[:])
	}
	return b.NewArray(), nil
}

func buildTimeColumn(mem memory.Allocator, c *chunk.Chunk, tl timeline.Timeline, n int) arrow.Array {
	b := array.NewInt64Builder(mem)
	defer b.Release()
	for i := 0; i < n; i++ {
		t, ok := c.Time(tl, i)
		if !ok {
			b.AppendNull()
			continue
		}
		b.Append(t.AsInt64())
	}
	return b.NewArray()
}

// ChunkOf reconstructs a Chunk from an arrow.Record built to §6's column
// contract. Unknown columns or a column that breaks a Chunk invariant
// yield ErrCorruptChunk; the caller is expected to isolate and skip it
// per §7 rather than fail the whole read.
func ChunkOf(rec arrow.Record) (*chunk.Chunk, error) {
	schema := rec.Schema()
	if schema.NumFields() == 0 || schema.Field(0).Name != fieldRowId {
		return nil, fmt.Errorf("%w: missing RowId column", ErrCorruptChunk)
	}

	entityRaw, ok := schema.Metadata().GetValue(MetaEntityPath)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s metadata", ErrCorruptChunk, MetaEntityPath)
	}
	entity := entitypath.Parse(entityRaw)

	rowIdCol, ok := rec.Column(0).(*array.FixedSizeBinary)
	if !ok || rowIdCol.DataType().(*arrow.FixedSizeBinaryType).ByteWidth != rowIdByteWidth {
		return nil, fmt.Errorf("%w: RowId column has the wrong type", ErrCorruptChunk)
	}
	n := int(rec.NumRows())
	rowIds := make([]ids.RowId, n)
	for i := 0; i < n; i++ {
		copy(rowIds[i][:], rowIdCol.Value(i))
	}

	builder := chunk.NewBuilder(entity).WithRowIds(rowIds)

	for col := 1; col < int(rec.NumCols()); col++ {
		field := schema.Field(col)
		arr := rec.Column(col)

		if tlName, ok := field.Metadata.GetValue(MetaTimeline); ok {
			tl, err := parseTimelineKey(tlName)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCorruptChunk, err)
			}
			intCol, ok := arr.(*array.Int64)
			if !ok {
				return nil, fmt.Errorf("%w: timeline column %s has the wrong type", ErrCorruptChunk, field.Name)
			}
			tc := chunk.TimeColumn{Timeline: tl, Times: make([]int64, n)}
			var valid []bool
			for i := 0; i < n; i++ {
				if intCol.IsNull(i) {
					if valid == nil {
						valid = make([]bool, n)
						for j := 0; j < i; j++ {
							valid[j] = true
						}
					}
					continue
				}
				tc.Times[i] = intCol.Value(i)
				if valid != nil {
					valid[i] = true
				}
			}
			tc.Valid = valid
			builder = builder.WithTimeColumn(tc)
			continue
		}

		desc, err := descriptorFromMetadata(field)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptChunk, err)
		}
		builder = builder.WithComponent(desc, arr)
	}

	c, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptChunk, err)
	}
	return c, nil
}

func parseTimelineKey(s string) (timeline.Timeline, error) {
	i := lastColon(s)
	if i < 0 {
		return timeline.Timeline{}, fmt.Errorf("codec: malformed timeline key %q", s)
	}
	typ, err := timeline.ParseType(s[i+1:])
	if err != nil {
		return timeline.Timeline{}, err
	}
	return timeline.New(s[:i], typ), nil
}

func lastColon(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ':' {
			return i
		}
	}
	return -1
}

// descriptorFromMetadata reads a component Descriptor back from the three
// positional-slot metadata keys RecordOf attaches to the field. The column
// name itself (field.Name) is kept for readability only; it is not a
// bijective encoding of desc, since Descriptor.String omits empty slots.
func descriptorFromMetadata(field arrow.Field) (component.Descriptor, error) {
	componentName, ok := field.Metadata.GetValue(MetaComponentName)
	if !ok {
		return component.Descriptor{}, fmt.Errorf("codec: component column %q missing %s metadata", field.Name, MetaComponentName)
	}
	archetype, _ := field.Metadata.GetValue(MetaComponentArchetype)
	fieldName, _ := field.Metadata.GetValue(MetaComponentField)
	return component.Descriptor{Archetype: archetype, Field: fieldName, Component: componentName}, nil
}
