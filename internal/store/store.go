// Package store implements the Chunk Store (§4.B): the owner of every live
// Chunk, routing inserts into the Static Table or the per-(timeline,entity)
// Index, exposing the Query Engine's read paths, garbage collection, and a
// typed event stream.
package store

import (
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"gastrolog/internal/callgroup"
	"gastrolog/internal/chunk"
	"gastrolog/internal/component"
	"gastrolog/internal/entitypath"
	"gastrolog/internal/ids"
	"gastrolog/internal/index"
	"gastrolog/internal/logging"
	"gastrolog/internal/query"
	"gastrolog/internal/statictable"
	"gastrolog/internal/timeline"
)

// Store owns the set of live Chunks keyed by ChunkId, insertion-ordered
// (§4.B). Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	chunks map[ids.ChunkId]*chunk.Chunk
	order  []ids.ChunkId // insertion order
	pinned map[ids.ChunkId]bool

	indexes *index.Manager
	statics *statictable.Table
	engine  *query.Engine

	cfg    Config
	logger *slog.Logger

	eventSeq  uint64
	subMu     sync.Mutex
	subs      map[uint64]*subscriber
	nextSubID uint64

	gcGroup    callgroup.Group[string]
	gcResultMu sync.Mutex
	gcResult   GcReport
}

// New returns an empty Store configured per cfg.
func New(cfg Config) *Store {
	cfg = cfg.withDefaults()
	indexes := index.NewManager(cfg.ChunkMaxRows, cfg.ChunkMaxBytes)
	statics := statictable.New()
	return &Store{
		chunks:  make(map[ids.ChunkId]*chunk.Chunk),
		pinned:  make(map[ids.ChunkId]bool),
		indexes: indexes,
		statics: statics,
		engine:  query.NewEngine(indexes, statics),
		cfg:     cfg,
		logger:  logging.Default(cfg.Logger).With("component", "store"),
		subs:    make(map[uint64]*subscriber),
	}
}

// Insert routes c into the Static Table or the relevant Indexes and emits a
// ChunkAdded event. Idempotent on c's ChunkId: re-inserting a chunk already
// live in the store is a no-op that returns the existing id (§4.B).
func (s *Store) Insert(c *chunk.Chunk) ids.ChunkId {
	s.mu.Lock()
	if _, ok := s.chunks[c.Id()]; ok {
		s.mu.Unlock()
		return c.Id()
	}
	s.chunks[c.Id()] = c
	s.order = append(s.order, c.Id())
	s.mu.Unlock()

	if c.IsStatic() {
		uc, err := chunk.NewUnitChunk(c)
		if err != nil {
			// Build already enforces "static implies exactly one row";
			// reaching here means an invariant was violated upstream.
			s.logger.Error("insert: static chunk failed unit invariant", "chunk", c.Id(), "error", err)
			return c.Id()
		}
		for _, desc := range c.Descriptors() {
			s.statics.Upsert(c.EntityPath(), desc, uc)
		}
	} else {
		for _, tl := range c.Timelines() {
			idx := s.indexes.GetOrCreate(index.Key{Timeline: tl, Entity: c.EntityPath()})
			idx.Insert(c)
		}
	}

	s.logger.Debug("chunk inserted", "chunk", c.Id(), "entity", c.EntityPath(), "static", c.IsStatic(), "rows", c.Len())

	if s.cfg.EnableChangelog {
		spans := make(map[timeline.Timeline]TimeSpan, len(c.Timelines()))
		for _, tl := range c.Timelines() {
			lo, hi, _ := c.MinMax(tl)
			spans[tl] = TimeSpan{Min: lo, Max: hi}
		}
		s.publish(Event{Added: &ChunkAdded{Id: c.Id(), Entity: c.EntityPath(), MinMaxPerTimeline: spans}})
	}

	return c.Id()
}

// LatestAt implements §4.E's latest-at contract through the Query Engine.
func (s *Store) LatestAt(entity entitypath.Path, desc component.Descriptor, tl timeline.Timeline, at timeline.TimeInt) (chunk.Row, bool, error) {
	return s.engine.LatestAt(entity, desc, tl, at)
}

// Range implements §4.E's range contract through the Query Engine.
func (s *Store) Range(entity entitypath.Path, desc component.Descriptor, tl timeline.Timeline, lo, hi timeline.TimeInt) ([]chunk.Row, error) {
	return s.engine.Range(entity, desc, tl, lo, hi)
}

// StaticLatest returns the static row for (entity, desc), if any, bypassing
// any temporal Index entirely (§4.B "static_latest").
func (s *Store) StaticLatest(entity entitypath.Path, desc component.Descriptor) (chunk.UnitChunk, bool) {
	return s.statics.Get(entity, desc)
}

// Pin protects a chunk id from GC regardless of target or protection rules,
// until Unpin is called. Grounds §4.B protection rule (iii) "chunks
// referenced by pinned snapshots (if any) skipped" — this store has no
// broader snapshot feature, so a chunk id is the finest thing there is to
// pin.
func (s *Store) Pin(id ids.ChunkId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chunks[id]; !ok {
		return ErrChunkNotFound
	}
	s.pinned[id] = true
	return nil
}

// Unpin releases a previous Pin. A no-op if id was never pinned.
func (s *Store) Unpin(id ids.ChunkId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pinned, id)
}

// Len returns the number of live chunks, static and temporal combined.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// All returns every live chunk, in insertion order. Intended for
// bulk export (the Chunk Codec's migration container, `cmd/datastore
// list`) — not a query path, so it takes the full read lock rather than
// going through the Query Engine.
func (s *Store) All() []*chunk.Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*chunk.Chunk, len(s.order))
	for i, id := range s.order {
		out[i] = s.chunks[id]
	}
	return out
}

// Subscribe returns an EventStream that first replays every chunk id
// currently live, then receives subsequent ChunkAdded/ChunkRemoved events
// in total order (§4.B "Event ordering").
func (s *Store) Subscribe() *EventStream {
	s.mu.RLock()
	replay := make([]ids.ChunkId, len(s.order))
	copy(replay, s.order)

	// The read lock is held until the subscriber is registered, so no chunk
	// can be inserted between the snapshot and registration; the replay is
	// queued under subMu, so no publish can reach the channel ahead of it.
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	sub := &subscriber{id: id, ch: make(chan Event, s.cfg.SubscriberQueueSize)}
	sub.ch <- Event{Replay: &Replay{Ids: replay}}
	s.subs[id] = sub
	s.subMu.Unlock()
	s.mu.RUnlock()

	return &EventStream{
		ch: sub.ch,
		cancel: func() {
			s.subMu.Lock()
			if existing, ok := s.subs[id]; ok && existing == sub {
				delete(s.subs, id)
				close(sub.ch)
			}
			s.subMu.Unlock()
		},
	}
}

// publish assigns the next event sequence number and fans e out to every
// subscriber. A subscriber whose channel is full is dropped rather than
// blocking the publisher (§5).
func (s *Store) publish(e Event) {
	s.subMu.Lock()
	s.eventSeq++
	e.Seq = s.eventSeq
	for id, sub := range s.subs {
		select {
		case sub.ch <- e:
		default:
			delete(s.subs, id)
			close(sub.ch)
			s.logger.Warn("subscriber dropped: event queue full", "subscriber", id)
		}
	}
	s.subMu.Unlock()
}

// GC runs one garbage-collection pass per target, deduplicating concurrent
// calls (e.g. a cron sweep and a manual trigger racing) with callgroup so
// only one pass actually executes at a time; callers that arrive while a
// pass is in flight receive that pass's report rather than starting a
// redundant one.
func (s *Store) GC(target GcTarget) GcReport {
	errCh := s.gcGroup.DoChan("gc", func() error {
		report := s.runGC(target)
		s.gcResultMu.Lock()
		s.gcResult = report
		s.gcResultMu.Unlock()
		return nil
	})
	<-errCh

	s.gcResultMu.Lock()
	defer s.gcResultMu.Unlock()
	return s.gcResult
}

func (s *Store) runGC(target GcTarget) GcReport {
	deadline := time.Time{}
	if s.cfg.GcTimeBudget > 0 {
		deadline = time.Now().Add(s.cfg.GcTimeBudget)
	}

	s.mu.RLock()
	var temporal []*chunk.Chunk
	for _, id := range s.order {
		c := s.chunks[id]
		if !c.IsStatic() {
			temporal = append(temporal, c)
		}
	}
	s.mu.RUnlock()

	protected := s.protectedChunkIds()

	totalRows := 0
	var candidates []*chunk.Chunk
	for _, c := range temporal {
		totalRows += c.Len()
		if protected[c.Id()] {
			continue
		}
		s.mu.RLock()
		pinned := s.pinned[c.Id()]
		s.mu.RUnlock()
		if pinned {
			continue
		}
		candidates = append(candidates, c)
	}
	sortChunksAscending(candidates)

	var rowBudget int
	var byteBudget int64
	switch target.kind {
	case gcDropFraction:
		f := target.fraction
		if f < 0 {
			f = 0
		}
		if f > 1 {
			f = 1
		}
		rowBudget = int(math.Ceil(f * float64(totalRows)))
	case gcDropBytes:
		byteBudget = target.bytes
	case gcDropAllTemporal:
		rowBudget = math.MaxInt
	}

	report := GcReport{Budget: GcCompleted}
	var rowsSoFar int
	var bytesSoFar int64

	for _, c := range candidates {
		if target.kind == gcDropFraction && rowsSoFar >= rowBudget {
			break
		}
		if target.kind == gcDropBytes && bytesSoFar >= byteBudget {
			break
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			report.Budget = GcExceeded
			break
		}

		s.dropChunk(c)

		rowsSoFar += c.Len()
		bytesSoFar += c.ByteSize()
		report.ChunksDropped = append(report.ChunksDropped, c.Id())
		report.RowsDropped += uint64(c.Len())
		report.BytesReclaimed += uint64(c.ByteSize())
	}

	return report
}

// dropChunk unregisters c from every Index it was routed into, removes it
// from the live set, and (if enabled) publishes a ChunkRemoved event.
func (s *Store) dropChunk(c *chunk.Chunk) {
	for _, tl := range c.Timelines() {
		key := index.Key{Timeline: tl, Entity: c.EntityPath()}
		idx, ok := s.indexes.Get(key)
		if !ok {
			continue
		}
		idx.Remove(c.Id())
		if s.cfg.GcPurgeEmptyTables && idx.Empty() {
			s.indexes.Delete(key)
		}
	}

	s.mu.Lock()
	delete(s.chunks, c.Id())
	for i, id := range s.order {
		if id == c.Id() {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	delete(s.pinned, c.Id())
	s.mu.Unlock()

	s.logger.Debug("chunk dropped by gc", "chunk", c.Id(), "rows", c.Len(), "bytes", c.ByteSize())

	if s.cfg.EnableChangelog {
		s.publish(Event{Removed: &ChunkRemoved{Id: c.Id(), BytesReclaimed: c.ByteSize()}})
	}
}

// protectedChunkIds unions every Index's ProtectLatest result (§4.B
// protection rule i).
func (s *Store) protectedChunkIds() map[ids.ChunkId]bool {
	protected := make(map[ids.ChunkId]bool)
	if s.cfg.GcProtectLatest <= 0 {
		return protected
	}
	for _, key := range s.indexes.Keys() {
		idx, ok := s.indexes.Get(key)
		if !ok {
			continue
		}
		for id := range idx.ProtectLatest(s.cfg.GcProtectLatest) {
			protected[id] = true
		}
	}
	return protected
}

func sortChunksAscending(chunks []*chunk.Chunk) {
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Id().Compare(chunks[j].Id()) < 0 })
}
