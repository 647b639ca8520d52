package chunk

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"gastrolog/internal/component"
	"gastrolog/internal/entitypath"
	"gastrolog/internal/ids"
	"gastrolog/internal/timeline"
)

func int64ListColumn(t *testing.T, rows [][]int64, null []bool) arrow.Array {
	t.Helper()
	mem := memory.NewGoAllocator()
	lb := array.NewListBuilder(mem, arrow.PrimitiveTypes.Int64)
	vb := lb.ValueBuilder().(*array.Int64Builder)
	for i, row := range rows {
		if null != nil && null[i] {
			lb.AppendNull()
			continue
		}
		lb.Append(true)
		for _, v := range row {
			vb.Append(v)
		}
	}
	return lb.NewListArray()
}

func ascendingRowIds(n int) []ids.RowId {
	out := make([]ids.RowId, n)
	for i := range out {
		out[i] = ids.NewRowId()
	}
	return out
}

func TestBuildTemporalChunk(t *testing.T) {
	entity := entitypath.New("robot", "position")
	frame := timeline.New("frame", timeline.Sequence)
	desc := component.New("Position3D")

	rowIds := ascendingRowIds(3)
	values := int64ListColumn(t, [][]int64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}, nil)

	c, err := NewBuilder(entity).
		WithRowIds(rowIds).
		WithTimeColumn(TimeColumn{Timeline: frame, Times: []int64{10, 20, 30}}).
		WithComponent(desc, values).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if c.IsStatic() {
		t.Fatalf("expected temporal chunk")
	}
	if c.Len() != 3 {
		t.Fatalf("got %d rows, want 3", c.Len())
	}
	if !c.IsSortedOn(frame) {
		t.Fatalf("expected frame column to be reported sorted")
	}
	lo, hi, ok := c.MinMax(frame)
	if !ok || lo.AsInt64() != 10 || hi.AsInt64() != 30 {
		t.Fatalf("got MinMax(%v, %v, %v)", lo, hi, ok)
	}
	if arr, ok := c.Component(desc); !ok || arr.Len() != 3 {
		t.Fatalf("expected component column of length 3")
	}
}

func TestBuildStaticChunk(t *testing.T) {
	entity := entitypath.New("robot")
	desc := component.New("Label")
	values := int64ListColumn(t, [][]int64{{42}}, nil)

	c, err := NewBuilder(entity).
		WithRowIds([]ids.RowId{ids.NewRowId()}).
		WithComponent(desc, values).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !c.IsStatic() {
		t.Fatalf("expected static chunk")
	}
	if len(c.Timelines()) != 0 {
		t.Fatalf("static chunk must carry no timelines")
	}
}

func TestBuildStaticChunkRejectsMultipleRows(t *testing.T) {
	entity := entitypath.New("robot")
	desc := component.New("Label")
	values := int64ListColumn(t, [][]int64{{1}, {2}}, nil)

	_, err := NewBuilder(entity).
		WithRowIds(ascendingRowIds(2)).
		WithComponent(desc, values).
		Build()
	if err == nil {
		t.Fatalf("expected error for multi-row static chunk")
	}
}

func TestBuildRejectsEmptyColumnSet(t *testing.T) {
	entity := entitypath.New("robot")
	_, err := NewBuilder(entity).WithRowIds([]ids.RowId{ids.NewRowId()}).Build()
	if err == nil {
		t.Fatalf("expected ErrEmptyColumnSet")
	}
}

func TestBuildRejectsNonAscendingRowId(t *testing.T) {
	entity := entitypath.New("robot")
	frame := timeline.New("frame", timeline.Sequence)
	a, b := ids.NewRowId(), ids.NewRowId()
	if !a.Less(b) {
		a, b = b, a
	}
	// intentionally reversed
	_, err := NewBuilder(entity).
		WithRowIds([]ids.RowId{b, a}).
		WithTimeColumn(TimeColumn{Timeline: frame, Times: []int64{1, 2}}).
		Build()
	if err == nil {
		t.Fatalf("expected ErrNonAscendingRowId")
	}
}

func TestBuildRejectsRowCountMismatch(t *testing.T) {
	entity := entitypath.New("robot")
	frame := timeline.New("frame", timeline.Sequence)
	_, err := NewBuilder(entity).
		WithRowIds(ascendingRowIds(3)).
		WithTimeColumn(TimeColumn{Timeline: frame, Times: []int64{1, 2}}).
		Build()
	if err == nil {
		t.Fatalf("expected ErrRowCountMismatch")
	}
}

func TestSparseTimelineSkipsNullRows(t *testing.T) {
	entity := entitypath.New("robot")
	frame := timeline.New("frame", timeline.Sequence)
	desc := component.New("Position3D")
	values := int64ListColumn(t, [][]int64{{1}, {2}, {3}}, nil)

	c, err := NewBuilder(entity).
		WithRowIds(ascendingRowIds(3)).
		WithTimeColumn(TimeColumn{
			Timeline: frame,
			Times:    []int64{10, 0, 30},
			Valid:    []bool{true, false, true},
		}).
		WithComponent(desc, values).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, hasTime := c.Time(frame, 1); hasTime {
		t.Fatalf("row 1 should have no time on frame")
	}
	lo, hi, ok := c.MinMax(frame)
	if !ok || lo.AsInt64() != 10 || hi.AsInt64() != 30 {
		t.Fatalf("got MinMax(%v, %v, %v)", lo, hi, ok)
	}
}

func TestSchemaHashStableAcrossRebuilds(t *testing.T) {
	entity := entitypath.New("robot")
	frame := timeline.New("frame", timeline.Sequence)
	desc := component.New("Position3D")

	build := func() *Chunk {
		values := int64ListColumn(t, [][]int64{{1}, {2}}, nil)
		c, err := NewBuilder(entity).
			WithRowIds(ascendingRowIds(2)).
			WithTimeColumn(TimeColumn{Timeline: frame, Times: []int64{1, 2}}).
			WithComponent(desc, values).
			Build()
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		return c
	}

	a, b := build(), build()
	if a.SchemaHash() != b.SchemaHash() {
		t.Fatalf("expected equal schema hashes for chunks with the same layout")
	}
	if a.Id() == b.Id() {
		t.Fatalf("expected distinct chunk ids")
	}
}
