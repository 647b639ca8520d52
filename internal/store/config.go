package store

import (
	"log/slog"
	"time"
)

// Config holds the Chunk Store's recognized options (§4.B). It is read once
// at construction and never consulted on the insert or query hot path.
type Config struct {
	// ChunkMaxRows is the soft per-bucket row cap: the insert that takes a
	// bucket above it splits that bucket. Zero disables the cap.
	ChunkMaxRows int
	// ChunkMaxBytes is the soft per-bucket byte cap, companion to
	// ChunkMaxRows. Zero disables the cap.
	ChunkMaxBytes int64
	// EnableChangelog controls whether Insert/GC populate the event stream.
	EnableChangelog bool
	// GcProtectLatest is the minimum number of most-recent rows per
	// (timeline, entity) a GC pass must retain, at whole-chunk granularity.
	GcProtectLatest int
	// GcPurgeEmptyTables controls whether GC evicts an Index left with no
	// chunks after a pass.
	GcPurgeEmptyTables bool
	// GcTimeBudget is a soft upper bound on one GC pass: once exceeded, GC
	// finishes the chunk it is currently dropping and stops, reporting
	// GcExceeded rather than silently truncating its candidate list.
	GcTimeBudget time.Duration
	// SubscriberQueueSize is the bounded channel size for each event stream
	// subscriber. Defaults to 256 if not set.
	SubscriberQueueSize int
	// Logger receives lifecycle events (chunk inserted, chunk dropped by GC,
	// subscriber dropped). Nil means discard.
	Logger *slog.Logger
}

func (c Config) withDefaults() Config {
	if c.SubscriberQueueSize <= 0 {
		c.SubscriberQueueSize = 256
	}
	return c
}
