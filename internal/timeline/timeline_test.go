package timeline

import "testing"

func TestTypeStringRoundTrip(t *testing.T) {
	for _, typ := range []Type{Sequence, TimestampNs, DurationNs} {
		s := typ.String()
		parsed, err := ParseType(s)
		if err != nil {
			t.Fatalf("ParseType(%q): %v", s, err)
		}
		if parsed != typ {
			t.Fatalf("round trip mismatch for %v", typ)
		}
	}
}

func TestTimelineString(t *testing.T) {
	tl := New("frame", Sequence)
	if tl.String() != "frame:sequence" {
		t.Fatalf("got %q", tl.String())
	}
}

func TestTimelineLessOrdersByNameThenType(t *testing.T) {
	a := New("frame", Sequence)
	b := New("log_time", TimestampNs)
	if !a.Less(b) {
		t.Fatalf("expected frame < log_time")
	}

	c := New("frame", DurationNs)
	if !a.Less(c) {
		t.Fatalf("expected frame:sequence < frame:duration_ns")
	}
}

func TestStaticIsStatic(t *testing.T) {
	if !Static().IsStatic() {
		t.Fatalf("Static() must report IsStatic")
	}
	if Temporal(MinTemporal).IsStatic() {
		t.Fatalf("MinTemporal must not be static")
	}
}

func TestTemporalPanicsOnSentinel(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic constructing Temporal(math.MinInt64)")
		}
	}()
	Temporal(-9223372036854775808)
}

func TestCompareStaticAboveTemporal(t *testing.T) {
	s := Static()
	tm := Temporal(MaxTemporal)
	if s.Compare(tm) <= 0 {
		t.Fatalf("expected static to sort above every temporal value")
	}
	if tm.Compare(s) >= 0 {
		t.Fatalf("expected temporal to sort below static")
	}
}

func TestCompareTemporalOrdering(t *testing.T) {
	a := Temporal(10)
	b := Temporal(20)
	if !a.Less(b) {
		t.Fatalf("expected 10 < 20")
	}
	if b.Less(a) {
		t.Fatalf("expected !(20 < 10)")
	}
}

func TestInClosedIntervalExcludesStatic(t *testing.T) {
	s := Static()
	if s.InClosedInterval(Temporal(0), Temporal(100)) {
		t.Fatalf("static must never satisfy a temporal interval check")
	}
}

func TestInClosedIntervalInclusiveEndpoints(t *testing.T) {
	lo, hi := Temporal(10), Temporal(20)
	if !lo.InClosedInterval(lo, hi) {
		t.Fatalf("lower bound should be inclusive")
	}
	if !hi.InClosedInterval(lo, hi) {
		t.Fatalf("upper bound should be inclusive")
	}
	if Temporal(9).InClosedInterval(lo, hi) {
		t.Fatalf("9 should be outside [10, 20]")
	}
	if Temporal(21).InClosedInterval(lo, hi) {
		t.Fatalf("21 should be outside [10, 20]")
	}
}
