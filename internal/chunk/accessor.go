package chunk

import (
	"iter"

	"github.com/apache/arrow-go/v18/arrow/array"

	"gastrolog/internal/component"
	"gastrolog/internal/ids"
	"gastrolog/internal/timeline"
)

// Row is a zero-copy view of one row of one component column: the row's
// identity, its time on a chosen timeline (if any), and a length-one slice
// of the component's list-array column. Value is nil if the row has no
// value for this component (cleared).
type Row struct {
	RowId   ids.RowId
	Time    timeline.TimeInt
	HasTime bool
	Value   *array.List
}

// Rows iterates row indices 0..Len()-1 for desc against tl, yielding a Row
// per index that carries a value for desc. Callers that only care about
// presence on tl, not the component, should range over indices directly
// instead of calling Rows.
//
// The component's column must be a list array; Build never inspects the
// inner type, so a non-list column here is a caller bug rather than
// something this iterator can repair.
func (c *Chunk) Rows(desc component.Descriptor, tl timeline.Timeline) iter.Seq[Row] {
	return func(yield func(Row) bool) {
		arr, ok := c.components[desc]
		if !ok {
			return
		}
		list, ok := arr.(*array.List)
		if !ok {
			return
		}
		for i := 0; i < c.Len(); i++ {
			if list.IsNull(i) {
				continue
			}
			t, hasTime := c.Time(tl, i)
			slice := array.NewSlice(list, int64(i), int64(i+1)).(*array.List)
			if !yield(Row{RowId: c.rowIds[i], Time: t, HasTime: hasTime, Value: slice}) {
				return
			}
		}
	}
}

// RowAt returns the full row view at index i for desc, regardless of
// whether the row carries a value (Value is nil if it doesn't).
func (c *Chunk) RowAt(desc component.Descriptor, tl timeline.Timeline, i int) Row {
	t, hasTime := c.Time(tl, i)
	row := Row{RowId: c.rowIds[i], Time: t, HasTime: hasTime}
	if arr, ok := c.components[desc]; ok {
		if list, ok := arr.(*array.List); ok && !list.IsNull(i) {
			row.Value = array.NewSlice(list, int64(i), int64(i+1)).(*array.List)
		}
	}
	return row
}
