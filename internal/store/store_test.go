package store

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"gastrolog/internal/chunk"
	"gastrolog/internal/component"
	"gastrolog/internal/entitypath"
	"gastrolog/internal/ids"
	"gastrolog/internal/timeline"
)

var desc = component.New("Position3D")

func listOfOneEach(t *testing.T, n int) arrow.Array {
	t.Helper()
	mem := memory.NewGoAllocator()
	lb := array.NewListBuilder(mem, arrow.PrimitiveTypes.Int64)
	vb := lb.ValueBuilder().(*array.Int64Builder)
	for i := 0; i < n; i++ {
		lb.Append(true)
		vb.Append(int64(i))
	}
	return lb.NewListArray()
}

func staticChunk(t *testing.T, entity entitypath.Path) *chunk.Chunk {
	t.Helper()
	c, err := chunk.NewBuilder(entity).
		WithRowIds([]ids.RowId{ids.NewRowId()}).
		WithComponent(desc, listOfOneEach(t, 1)).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return c
}

func temporalChunk(t *testing.T, entity entitypath.Path, tl timeline.Timeline, times []int64) *chunk.Chunk {
	t.Helper()
	rowIds := make([]ids.RowId, len(times))
	for i := range times {
		rowIds[i] = ids.NewRowId()
		time.Sleep(time.Microsecond) // keep RowIds (UUIDv7) strictly increasing
	}
	c, err := chunk.NewBuilder(entity).
		WithRowIds(rowIds).
		WithTimeColumn(chunk.TimeColumn{Timeline: tl, Times: times}).
		WithComponent(desc, listOfOneEach(t, len(times))).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return c
}

func TestInsertIsIdempotent(t *testing.T) {
	s := New(Config{})
	entity := entitypath.New("robot")
	frame := timeline.New("frame", timeline.Sequence)
	c := temporalChunk(t, entity, frame, []int64{1, 2, 3})

	id1 := s.Insert(c)
	id2 := s.Insert(c)
	if id1 != id2 {
		t.Fatalf("expected idempotent insert to return the same id")
	}
	if s.Len() != 1 {
		t.Fatalf("expected exactly one live chunk, got %d", s.Len())
	}
}

func TestInsertRoutesStaticToStaticTable(t *testing.T) {
	s := New(Config{})
	entity := entitypath.New("robot")
	c := staticChunk(t, entity)
	s.Insert(c)

	uc, ok := s.StaticLatest(entity, desc)
	if !ok {
		t.Fatalf("expected a static row")
	}
	if uc.Id() != c.Id() {
		t.Fatalf("got a different chunk back from the static table")
	}
}

func TestInsertRoutesTemporalToIndex(t *testing.T) {
	s := New(Config{})
	entity := entitypath.New("robot")
	frame := timeline.New("frame", timeline.Sequence)
	s.Insert(temporalChunk(t, entity, frame, []int64{10, 20, 30}))

	row, ok, err := s.LatestAt(entity, desc, frame, timeline.Temporal(25))
	if err != nil {
		t.Fatalf("LatestAt: %v", err)
	}
	if !ok || row.Time.AsInt64() != 20 {
		t.Fatalf("got ok=%v time=%v, want time=20", ok, row.Time)
	}
}

func TestGCDropAllTemporalPreservesStatic(t *testing.T) {
	s := New(Config{})
	entity := entitypath.New("robot")
	frame := timeline.New("frame", timeline.Sequence)

	s.Insert(staticChunk(t, entity))
	s.Insert(temporalChunk(t, entity, frame, []int64{1, 2, 3}))

	report := s.GC(DropAllTemporal())
	if len(report.ChunksDropped) != 1 {
		t.Fatalf("expected exactly one chunk dropped, got %d", len(report.ChunksDropped))
	}

	if _, ok, _ := s.LatestAt(entity, desc, frame, timeline.Temporal(100)); ok {
		t.Fatalf("expected no temporal answer after DropAllTemporal")
	}
	if _, ok := s.StaticLatest(entity, desc); !ok {
		t.Fatalf("expected the static row to survive DropAllTemporal")
	}
}

func TestGCProtectLatestPreservesNewestRow(t *testing.T) {
	s := New(Config{GcProtectLatest: 1})
	entity := entitypath.New("robot")
	frame := timeline.New("frame", timeline.Sequence)

	// Insert 1000 rows of increasing time, one chunk per row so GC's
	// whole-chunk granularity can actually reclaim most of them.
	times := make([]int64, 1000)
	for i := range times {
		times[i] = int64(i)
	}
	for _, ts := range times {
		s.Insert(temporalChunk(t, entity, frame, []int64{ts}))
	}

	report := s.GC(DropAtLeastFraction(0.9))
	if report.RowsDropped < 900 {
		t.Fatalf("expected at least 900 rows dropped, got %d", report.RowsDropped)
	}

	row, ok, err := s.LatestAt(entity, desc, frame, timeline.Temporal(timeline.MaxTemporal))
	if err != nil {
		t.Fatalf("LatestAt: %v", err)
	}
	if !ok || row.Time.AsInt64() != 999 {
		t.Fatalf("expected the newest row (999) to survive, got ok=%v time=%v", ok, row.Time)
	}
}

func TestAllReturnsEveryLiveChunkInInsertionOrder(t *testing.T) {
	s := New(Config{})
	entity := entitypath.New("robot")
	frame := timeline.New("frame", timeline.Sequence)

	a := staticChunk(t, entity)
	b := temporalChunk(t, entity, frame, []int64{1})
	s.Insert(a)
	s.Insert(b)

	all := s.All()
	if len(all) != 2 || all[0].Id() != a.Id() || all[1].Id() != b.Id() {
		t.Fatalf("got %v, want [%v %v]", all, a.Id(), b.Id())
	}
}

func TestPinProtectsFromGC(t *testing.T) {
	s := New(Config{})
	entity := entitypath.New("robot")
	frame := timeline.New("frame", timeline.Sequence)
	c := temporalChunk(t, entity, frame, []int64{1})

	id := s.Insert(c)
	if err := s.Pin(id); err != nil {
		t.Fatalf("Pin: %v", err)
	}

	report := s.GC(DropAllTemporal())
	if len(report.ChunksDropped) != 0 {
		t.Fatalf("expected the pinned chunk to survive GC, got %v dropped", report.ChunksDropped)
	}
}

func TestSubscribeReplaysThenReceivesEvents(t *testing.T) {
	s := New(Config{EnableChangelog: true})
	entity := entitypath.New("robot")
	existing := staticChunk(t, entity)
	s.Insert(existing)

	stream := s.Subscribe()
	defer stream.Close()

	replay := <-stream.Events()
	if replay.Replay == nil || len(replay.Replay.Ids) != 1 || replay.Replay.Ids[0] != existing.Id() {
		t.Fatalf("expected a replay of the one existing chunk, got %+v", replay)
	}

	frame := timeline.New("frame", timeline.Sequence)
	added := temporalChunk(t, entity, frame, []int64{5})
	s.Insert(added)

	ev := <-stream.Events()
	if ev.Added == nil || ev.Added.Id != added.Id() {
		t.Fatalf("expected a ChunkAdded event for the new chunk, got %+v", ev)
	}
}
