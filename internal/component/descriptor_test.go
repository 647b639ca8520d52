package component

import (
	"sort"
	"testing"
)

func TestStringOmitsEmptyParts(t *testing.T) {
	d := New("Position3D")
	if d.String() != "Position3D" {
		t.Fatalf("got %q", d.String())
	}

	full := Descriptor{Archetype: "Points3D", Field: "positions", Component: "Position3D"}
	if full.String() != "Points3D:positions:Position3D" {
		t.Fatalf("got %q", full.String())
	}
}

func TestEqual(t *testing.T) {
	a := New("pos")
	b := New("pos")
	if !a.Equal(b) {
		t.Fatalf("expected equal")
	}
	c := Descriptor{Archetype: "Points3D", Component: "pos"}
	if a.Equal(c) {
		t.Fatalf("expected distinct")
	}
}

func TestSortOrder(t *testing.T) {
	descs := []Descriptor{
		{Component: "zeta"},
		{Archetype: "Points3D", Component: "pos"},
		{Component: "alpha"},
		{Field: "x", Component: "pos"},
	}
	sort.Sort(ByLess(descs))

	want := []string{
		"alpha",
		"zeta",
		"x:pos",
		"Points3D:pos",
	}
	for i, d := range descs {
		if d.String() != want[i] {
			t.Fatalf("position %d: got %q, want %q", i, d.String(), want[i])
		}
	}
}
