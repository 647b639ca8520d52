package store

import (
	"gastrolog/internal/entitypath"
	"gastrolog/internal/ids"
	"gastrolog/internal/timeline"
)

// TimeSpan is the [min, max] envelope a chunk occupies on one timeline,
// carried on ChunkAdded so subscribers can maintain their own coarse
// time-range index without re-reading the chunk.
type TimeSpan struct {
	Min timeline.TimeInt
	Max timeline.TimeInt
}

// ChunkAdded is emitted once a newly inserted chunk has been fully routed
// into the Static Table or the relevant Indexes.
type ChunkAdded struct {
	Id                ids.ChunkId
	Entity            entitypath.Path
	MinMaxPerTimeline map[timeline.Timeline]TimeSpan
}

// ChunkRemoved is emitted once a GC pass has fully unregistered a chunk.
type ChunkRemoved struct {
	Id             ids.ChunkId
	BytesReclaimed int64
}

// Replay is the synthetic snapshot every new subscriber receives before any
// live event, enumerating every chunk id live in the store at subscribe
// time (§4.B "Event ordering").
type Replay struct {
	Ids []ids.ChunkId
}

// Event is the tagged union delivered on an EventStream. Exactly one field
// is non-nil.
type Event struct {
	Seq     uint64
	Replay  *Replay
	Added   *ChunkAdded
	Removed *ChunkRemoved
}

// EventStream is a subscriber's bounded view of the store's event counter.
// A subscriber that falls behind (its channel full) is dropped: its channel
// is closed rather than the publisher blocking on it (§5).
type EventStream struct {
	ch     chan Event
	cancel func()
}

// Events returns the channel events arrive on. It is closed when the
// subscriber is dropped or explicitly unsubscribed.
func (s *EventStream) Events() <-chan Event { return s.ch }

// Close unsubscribes, releasing the store's reference to this stream.
func (s *EventStream) Close() { s.cancel() }

type subscriber struct {
	id uint64
	ch chan Event
}
