package index

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"gastrolog/internal/chunk"
	"gastrolog/internal/component"
	"gastrolog/internal/entitypath"
	gids "gastrolog/internal/ids"
	"gastrolog/internal/timeline"
)

var desc = component.New("Position3D")

func buildTemporalChunk(t *testing.T, entity entitypath.Path, tl timeline.Timeline, times []int64) *chunk.Chunk {
	t.Helper()
	mem := memory.NewGoAllocator()
	lb := array.NewListBuilder(mem, arrow.PrimitiveTypes.Int64)
	vb := lb.ValueBuilder().(*array.Int64Builder)
	rowIds := make([]gids.RowId, len(times))
	for i := range times {
		lb.Append(true)
		vb.Append(int64(i))
		rowIds[i] = gids.NewRowId()
	}
	values := lb.NewListArray()

	c, err := chunk.NewBuilder(entity).
		WithRowIds(rowIds).
		WithTimeColumn(chunk.TimeColumn{Timeline: tl, Times: times}).
		WithComponent(desc, values).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return c
}

func TestLatestAtAcrossSingleBucket(t *testing.T) {
	entity := entitypath.New("robot")
	frame := timeline.New("frame", timeline.Sequence)
	mgr := NewManager(0, 0)
	idx := mgr.GetOrCreate(Key{Timeline: frame, Entity: entity})

	idx.Insert(buildTemporalChunk(t, entity, frame, []int64{10, 20, 30}))

	loc, ok := idx.LatestAt(desc, timeline.Temporal(25))
	if !ok {
		t.Fatalf("expected a latest-at result")
	}
	if loc.Time.AsInt64() != 20 {
		t.Fatalf("got time %v, want 20", loc.Time)
	}
}

func TestLatestAtBeforeAnyData(t *testing.T) {
	entity := entitypath.New("robot")
	frame := timeline.New("frame", timeline.Sequence)
	mgr := NewManager(0, 0)
	idx := mgr.GetOrCreate(Key{Timeline: frame, Entity: entity})
	idx.Insert(buildTemporalChunk(t, entity, frame, []int64{10, 20, 30}))

	if _, ok := idx.LatestAt(desc, timeline.Temporal(5)); ok {
		t.Fatalf("expected no result before any data")
	}
}

func TestRangeAcrossBucketsAfterSplit(t *testing.T) {
	entity := entitypath.New("robot")
	frame := timeline.New("frame", timeline.Sequence)
	mgr := NewManager(2, 0) // split after 2 rows per bucket
	idx := mgr.GetOrCreate(Key{Timeline: frame, Entity: entity})

	idx.Insert(buildTemporalChunk(t, entity, frame, []int64{10}))
	idx.Insert(buildTemporalChunk(t, entity, frame, []int64{20}))
	idx.Insert(buildTemporalChunk(t, entity, frame, []int64{30}))

	rows := idx.Range(desc, timeline.Temporal(0), timeline.Temporal(100))
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		if rows[i].Time.Less(rows[i-1].Time) {
			t.Fatalf("range result not ascending by time at index %d", i)
		}
	}
}

func TestRangeRespectsInterval(t *testing.T) {
	entity := entitypath.New("robot")
	frame := timeline.New("frame", timeline.Sequence)
	mgr := NewManager(0, 0)
	idx := mgr.GetOrCreate(Key{Timeline: frame, Entity: entity})
	idx.Insert(buildTemporalChunk(t, entity, frame, []int64{10, 20, 30, 40}))

	rows := idx.Range(desc, timeline.Temporal(15), timeline.Temporal(35))
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 (20 and 30)", len(rows))
	}
	if rows[0].Time.AsInt64() != 20 || rows[1].Time.AsInt64() != 30 {
		t.Fatalf("got times %v, %v", rows[0].Time, rows[1].Time)
	}
}

func TestManagerGetOrCreateReusesIndex(t *testing.T) {
	entity := entitypath.New("robot")
	frame := timeline.New("frame", timeline.Sequence)
	mgr := NewManager(0, 0)
	a := mgr.GetOrCreate(Key{Timeline: frame, Entity: entity})
	b := mgr.GetOrCreate(Key{Timeline: frame, Entity: entity})
	if a != b {
		t.Fatalf("expected GetOrCreate to reuse the same Index")
	}
}
