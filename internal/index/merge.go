package index

import (
	"container/heap"

	"gastrolog/internal/chunk"
)

// listCursor tracks one pre-sorted Row list's read position in the merge
// heap below.
type listCursor struct {
	list []chunk.Row
	pos  int
}

func (c *listCursor) peek() chunk.Row { return c.list[c.pos] }
func (c *listCursor) advance() bool {
	c.pos++
	return c.pos < len(c.list)
}

// cursorHeap is a min-heap of listCursors ordered by (time, RowId),
// mirroring the teacher's mergeHeap-over-cursors shape but merging
// pre-sorted slices instead of live record cursors.
type cursorHeap []*listCursor

func (h cursorHeap) Len() int           { return len(h) }
func (h cursorHeap) Less(i, j int) bool { return rowLess(h[i].peek(), h[j].peek()) }
func (h cursorHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *cursorHeap) Push(x any)        { *h = append(*h, x.(*listCursor)) }
func (h *cursorHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// mergeSortedRows merges K pre-sorted Row lists into one sorted slice by
// (time, RowId), ascending. Used to combine a range query's per-bucket
// results without re-sorting the whole output from scratch.
func mergeSortedRows(lists [][]chunk.Row) []chunk.Row {
	if len(lists) == 0 {
		return nil
	}
	if len(lists) == 1 {
		return lists[0]
	}

	total := 0
	h := make(cursorHeap, 0, len(lists))
	for _, l := range lists {
		if len(l) == 0 {
			continue
		}
		total += len(l)
		h = append(h, &listCursor{list: l})
	}
	heap.Init(&h)

	out := make([]chunk.Row, 0, total)
	for h.Len() > 0 {
		top := h[0]
		out = append(out, top.peek())
		if top.advance() {
			heap.Fix(&h, 0)
		} else {
			heap.Pop(&h)
		}
	}
	return out
}
