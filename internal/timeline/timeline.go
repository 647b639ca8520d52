// Package timeline defines a named time axis (Timeline) and the
// sentinel-carrying 64-bit time value (TimeInt) used to index and query
// rows along it.
package timeline

import (
	"fmt"
	"math"
)

// Type is the closed set of timeline kinds a Timeline may carry.
type Type int

const (
	// Sequence is a monotonically increasing logical counter (e.g. a frame
	// number). It has no fixed relationship to wall-clock time.
	Sequence Type = iota
	// TimestampNs is nanoseconds since the Unix epoch.
	TimestampNs
	// DurationNs is nanoseconds since an arbitrary, timeline-local origin.
	DurationNs
)

// String renders the type using the wire names from the chunk encoding
// contract ("sequence", "timestamp_ns", "duration_ns").
func (t Type) String() string {
	switch t {
	case Sequence:
		return "sequence"
	case TimestampNs:
		return "timestamp_ns"
	case DurationNs:
		return "duration_ns"
	default:
		return fmt.Sprintf("unknown_timeline_type(%d)", int(t))
	}
}

// ParseType parses the wire name back into a Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "sequence":
		return Sequence, nil
	case "timestamp_ns":
		return TimestampNs, nil
	case "duration_ns":
		return DurationNs, nil
	default:
		return 0, fmt.Errorf("timeline: unknown type %q", s)
	}
}

// Timeline names a time axis with a fixed type. Timelines are compared by
// (Name, Type); two Timelines with the same name and different types are
// never the same axis.
type Timeline struct {
	name string
	typ  Type
}

// New builds a Timeline with the given name and type.
func New(name string, typ Type) Timeline { return Timeline{name: name, typ: typ} }

func (tl Timeline) Name() string { return tl.name }
func (tl Timeline) Type() Type   { return tl.typ }

// String renders "name:type", the form used in the chunk encoding's
// rerun:timeline column metadata.
func (tl Timeline) String() string { return tl.name + ":" + tl.typ.String() }

// Equal reports whether two Timelines name the same axis.
func (tl Timeline) Equal(other Timeline) bool { return tl.name == other.name && tl.typ == other.typ }

// Less orders Timelines by name then type, the order §6 requires for
// column layout ("ordered by timeline name, then type").
func (tl Timeline) Less(other Timeline) bool {
	if tl.name != other.name {
		return tl.name < other.name
	}
	return tl.typ < other.typ
}

// TimeInt is a 64-bit signed time value with one reserved sentinel meaning
// "static" (not a temporal value). Every other value, including
// math.MinInt64+1, is temporal.
//
// Only math.MinInt64 means static. Code must never compare a raw int64
// against any other sentinel-shaped constant; route every comparison
// through Compare, IsStatic, or MinTemporal/MaxTemporal below.
type TimeInt int64

const (
	// staticSentinel is the one reserved value meaning "not a temporal
	// value". It is intentionally unexported: external code must go
	// through Static() rather than construct the sentinel by hand.
	staticSentinel = math.MinInt64

	// MinTemporal is the smallest value a temporal TimeInt may hold.
	MinTemporal = math.MinInt64 + 1
	// MaxTemporal is the largest value a temporal TimeInt may hold.
	MaxTemporal = math.MaxInt64
)

// Static returns the sentinel TimeInt meaning "applies at every time".
func Static() TimeInt { return TimeInt(staticSentinel) }

// Temporal wraps a plain int64 as a temporal TimeInt. It panics if v is the
// reserved sentinel; callers that might legitimately hand in MinInt64
// (none should, per the data model) must not call this directly.
func Temporal(v int64) TimeInt {
	if v == staticSentinel {
		panic("timeline: math.MinInt64 is reserved for TimeInt.Static()")
	}
	return TimeInt(v)
}

// IsStatic reports whether t is the static sentinel.
func (t TimeInt) IsStatic() bool { return int64(t) == staticSentinel }

// AsInt64 returns the raw underlying value, sentinel included. Use sparingly
// — prefer Compare/IsStatic for anything that touches the static/temporal
// distinction.
func (t TimeInt) AsInt64() int64 { return int64(t) }

// Compare orders TimeInts for query and index purposes: static sorts above
// every temporal value (§3 "Ordering places static above every temporal
// value in semantic queries"), but static is "outside of temporal ranges
// entirely" — callers doing range containment checks must test IsStatic
// first and handle it separately rather than relying on Compare to exclude
// it from a [lo, hi] interval.
func (t TimeInt) Compare(other TimeInt) int {
	switch {
	case t.IsStatic() && other.IsStatic():
		return 0
	case t.IsStatic():
		return 1
	case other.IsStatic():
		return -1
	case t < other:
		return -1
	case t > other:
		return 1
	default:
		return 0
	}
}

// Less reports t < other under Compare's ordering.
func (t TimeInt) Less(other TimeInt) bool { return t.Compare(other) < 0 }

// InClosedInterval reports whether t is a temporal value within [lo, hi]
// inclusive. Static never satisfies this, regardless of lo/hi, per §3
// ("outside of temporal ranges entirely").
func (t TimeInt) InClosedInterval(lo, hi TimeInt) bool {
	if t.IsStatic() {
		return false
	}
	return !t.Less(lo) && !hi.Less(t)
}

// String renders "static" or the decimal temporal value.
func (t TimeInt) String() string {
	if t.IsStatic() {
		return "static"
	}
	return fmt.Sprintf("%d", int64(t))
}
