package store

import (
	"testing"

	"gastrolog/internal/entitypath"
	"gastrolog/internal/timeline"
)

// TestLatestAtAcrossChunks inserts one row per chunk at times 10, 20, 30
// and checks that querying between two of them returns the older one.
func TestLatestAtAcrossChunks(t *testing.T) {
	s := New(Config{})
	entity := entitypath.New("a")
	frame := timeline.New("frame", timeline.Sequence)

	for _, at := range []int64{10, 20, 30} {
		s.Insert(temporalChunk(t, entity, frame, []int64{at}))
	}

	row, ok, err := s.LatestAt(entity, desc, frame, timeline.Temporal(25))
	if err != nil {
		t.Fatalf("LatestAt: %v", err)
	}
	if !ok || row.Time.AsInt64() != 20 {
		t.Fatalf("got ok=%v time=%v, want time=20", ok, row.Time)
	}
}

// TestStaticRowShadowedOnlyWhenATemporalRowQualifies checks that a static
// row answers latest-at until a qualifying (<= at) temporal row exists,
// after which the temporal row wins.
func TestStaticRowShadowedOnlyWhenATemporalRowQualifies(t *testing.T) {
	s := New(Config{})
	entity := entitypath.New("a")
	frame := timeline.New("frame", timeline.Sequence)
	s.Insert(staticChunk(t, entity))

	row, ok, err := s.LatestAt(entity, desc, frame, timeline.Temporal(5))
	if err != nil {
		t.Fatalf("LatestAt: %v", err)
	}
	if !ok || row.HasTime {
		t.Fatalf("expected the static row before any temporal insert, got ok=%v hasTime=%v", ok, row.HasTime)
	}

	for _, at := range []int64{10, 20, 30} {
		s.Insert(temporalChunk(t, entity, frame, []int64{at}))
	}

	row, ok, err = s.LatestAt(entity, desc, frame, timeline.Temporal(5))
	if err != nil {
		t.Fatalf("LatestAt: %v", err)
	}
	if !ok || row.HasTime {
		t.Fatalf("expected the static row to still answer at=5, got ok=%v hasTime=%v", ok, row.HasTime)
	}

	row, ok, err = s.LatestAt(entity, desc, frame, timeline.Temporal(25))
	if err != nil {
		t.Fatalf("LatestAt: %v", err)
	}
	if !ok || !row.HasTime || row.Time.AsInt64() != 20 {
		t.Fatalf("expected the temporal row at 20 to shadow the static row, got ok=%v row=%v", ok, row)
	}
}

// TestLatestAtTieBreaksOnLargerRowId checks that when two rows share the
// same time, the one with the larger RowId wins.
func TestLatestAtTieBreaksOnLargerRowId(t *testing.T) {
	s := New(Config{})
	entity := entitypath.New("a")
	frame := timeline.New("frame", timeline.Sequence)

	first := temporalChunk(t, entity, frame, []int64{10})
	second := temporalChunk(t, entity, frame, []int64{10})
	s.Insert(first)
	s.Insert(second)

	row, ok, err := s.LatestAt(entity, desc, frame, timeline.Temporal(10))
	if err != nil {
		t.Fatalf("LatestAt: %v", err)
	}
	if !ok {
		t.Fatalf("expected a row at time 10")
	}
	if row.RowId != second.RowId(0) {
		t.Fatalf("expected the later-inserted (larger) RowId to win the tie, got %v want %v", row.RowId, second.RowId(0))
	}
}

// TestRangeEndpointsAreInclusiveAndOrdered checks that a closed-interval
// range query includes both endpoints and orders results by time.
func TestRangeEndpointsAreInclusiveAndOrdered(t *testing.T) {
	s := New(Config{})
	entity := entitypath.New("a")
	frame := timeline.New("frame", timeline.Sequence)

	for _, at := range []int64{10, 20, 30} {
		s.Insert(temporalChunk(t, entity, frame, []int64{at}))
	}

	rows, err := s.Range(entity, desc, frame, timeline.Temporal(10), timeline.Temporal(20))
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Time.AsInt64() != 10 || rows[1].Time.AsInt64() != 20 {
		t.Fatalf("got times %v, %v, want 10, 20 in order", rows[0].Time, rows[1].Time)
	}
}
