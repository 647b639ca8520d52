package index

import (
	"sort"

	"gastrolog/internal/chunk"
	"gastrolog/internal/component"
	"gastrolog/internal/ids"
	"gastrolog/internal/timeline"
)

// bucket is an ordered collection of Chunk references sharing a time
// envelope, per §4.C. Chunks are never mutated or copied into a bucket's own
// storage; a bucket only ever holds references, so the same Chunk can sit
// in two buckets after a split without duplicating data.
//
// A bucket can hold chunks for more than one component descriptor, since
// routing on insert (§4.B) groups chunks only by (timeline, entity). Lookups
// take the descriptor as a parameter and skip chunks or rows that don't
// carry it.
type bucket struct {
	chunks  []*chunk.Chunk
	minTime timeline.TimeInt
	maxTime timeline.TimeInt
	rows    int
	bytes   int64
}

func newBucket() *bucket { return &bucket{} }

func (b *bucket) append(c *chunk.Chunk, lo, hi timeline.TimeInt) {
	if len(b.chunks) == 0 || lo.Less(b.minTime) {
		b.minTime = lo
	}
	if len(b.chunks) == 0 || b.maxTime.Less(hi) {
		b.maxTime = hi
	}
	b.chunks = append(b.chunks, c)
	b.rows += c.Len()
	b.bytes += c.ByteSize()
}

// latestAt scans every chunk that carries desc and whose envelope could
// hold the answer (its minimum time is at or before at), and returns the
// row with the greatest (time, RowId) at or before at among rows where desc
// is not cleared (null).
func (b *bucket) latestAt(tl timeline.Timeline, desc component.Descriptor, at timeline.TimeInt) (chunk.Row, bool) {
	var best chunk.Row
	found := false

	for _, c := range b.chunks {
		if !c.HasComponent(desc) {
			continue
		}
		lo, _, ok := c.MinMax(tl)
		if !ok || at.Less(lo) {
			continue
		}
		for i := 0; i < c.Len(); i++ {
			t, hasTime := c.Time(tl, i)
			if !hasTime || at.Less(t) {
				continue
			}
			row := c.RowAt(desc, tl, i)
			if row.Value == nil {
				continue // cleared at this row
			}
			if !found {
				best, found = row, true
				continue
			}
			if cmp := t.Compare(best.Time); cmp > 0 || (cmp == 0 && row.RowId.Compare(best.RowId) > 0) {
				best = row
			}
		}
	}
	return best, found
}

// rangeRows returns every row across b's chunks where desc is present and
// not cleared and the time falls in [lo, hi], sorted by (time, RowId)
// ascending within this bucket. Index.Range merges the per-bucket results
// from possibly-overlapping buckets.
func (b *bucket) rangeRows(tl timeline.Timeline, desc component.Descriptor, lo, hi timeline.TimeInt) []chunk.Row {
	var out []chunk.Row
	for _, c := range b.chunks {
		if !c.HasComponent(desc) {
			continue
		}
		cLo, cHi, ok := c.MinMax(tl)
		if !ok || cHi.Less(lo) || hi.Less(cLo) {
			continue
		}
		for i := 0; i < c.Len(); i++ {
			t, hasTime := c.Time(tl, i)
			if !hasTime || !t.InClosedInterval(lo, hi) {
				continue
			}
			row := c.RowAt(desc, tl, i)
			if row.Value == nil {
				continue
			}
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return rowLess(out[i], out[j]) })
	return out
}

func rowLess(a, b chunk.Row) bool {
	if cmp := a.Time.Compare(b.Time); cmp != 0 {
		return cmp < 0
	}
	return a.RowId.Less(b.RowId)
}

// removeChunk drops every reference to id from b (a chunk may have been
// duplicated into two buckets by a split, so this is a no-op for buckets
// that never held it) and recomputes the envelope and counts from what
// remains. Reports the rows and bytes removed from this bucket.
func (b *bucket) removeChunk(id ids.ChunkId, tl timeline.Timeline) (rowsRemoved int, bytesRemoved int64) {
	kept := b.chunks[:0]
	for _, c := range b.chunks {
		if c.Id() == id {
			rowsRemoved += c.Len()
			bytesRemoved += c.ByteSize()
			continue
		}
		kept = append(kept, c)
	}
	if rowsRemoved == 0 {
		return 0, 0
	}
	b.chunks = kept
	b.rows -= rowsRemoved
	b.bytes -= bytesRemoved

	b.minTime, b.maxTime = timeline.TimeInt(0), timeline.TimeInt(0)
	for i, c := range b.chunks {
		lo, hi, _ := c.MinMax(tl)
		if i == 0 || lo.Less(b.minTime) {
			b.minTime = lo
		}
		if i == 0 || b.maxTime.Less(hi) {
			b.maxTime = hi
		}
	}
	return rowsRemoved, bytesRemoved
}

// splitBucket splits b (already present in idx.buckets) in place: it picks
// the median of each chunk's representative (minimum) time on the index's
// timeline, then partitions chunk references around that median, duplicating
// any chunk whose envelope spans it. This keeps the split O(n log n) in the
// bucket's chunk count rather than its row count, per §4.C.
func (idx *Index) splitBucket(b *bucket) {
	n := len(b.chunks)
	if n < 2 {
		return
	}

	reps := make([]timeline.TimeInt, n)
	for i, c := range b.chunks {
		lo, _, _ := c.MinMax(idx.key.Timeline)
		reps[i] = lo
	}
	sort.Slice(reps, func(i, j int) bool { return reps[i].Less(reps[j]) })
	median := reps[n/2]

	left, right := newBucket(), newBucket()
	for _, c := range b.chunks {
		lo, hi, _ := c.MinMax(idx.key.Timeline)
		if !median.Less(lo) {
			left.append(c, lo, hi)
		}
		if median.Less(hi) {
			right.append(c, lo, hi)
		}
	}
	if len(left.chunks) == 0 || len(right.chunks) == 0 || (len(left.chunks) == n && len(right.chunks) == n) {
		return // degenerate split (one side empty, or every chunk spans the median); leave b as-is
	}

	for i, existing := range idx.buckets {
		if existing == b {
			idx.buckets = append(idx.buckets[:i], append([]*bucket{left, right}, idx.buckets[i+1:]...)...)
			break
		}
	}
	sort.Slice(idx.buckets, func(i, j int) bool { return idx.buckets[i].minTime.Less(idx.buckets[j].minTime) })
}
