// Package config provides configuration persistence for the Chunk Store.
//
// Store persists and reloads the desired store shape across restarts.
// This is control-plane state, not data-plane state: Config is read once
// at construction and threaded through explicit Config structs on each
// component (store.Config, index caps, codec options) — it is never
// consulted on the insert or query hot path.
//
// Store does not:
//   - Inspect chunks or rows
//   - Perform routing
//   - Manage component lifecycle
//   - Watch for live changes (load-on-start only, no hot reload)
package config

import (
	"context"
	"log/slog"
	"time"

	"gastrolog/internal/format"
	"gastrolog/internal/store"
)

// Store persists and loads the desired Config.
type Store interface {
	// Load reads the configuration. Returns nil config if none exists.
	Load(ctx context.Context) (*Config, error)
	// Save persists the configuration.
	Save(ctx context.Context, cfg *Config) error
}

// Config declaratively describes the desired shape of one Chunk Store: its
// chunk size caps, GC policy, and codec options. It defines what should
// exist, not how to construct it.
type Config struct {
	// ChunkMaxRows and ChunkMaxBytes cap how large a single Index bucket
	// may grow: an insert that pushes a bucket past either cap splits that
	// bucket at its median time (§4.C).
	ChunkMaxRows  int
	ChunkMaxBytes int64

	// EnableChangelog turns on the Chunk Store's event stream (§4.B/§5).
	// Off by default. While off, Insert and GC publish no events, so a
	// subscriber receives only its initial Replay.
	EnableChangelog bool

	// SubscriberQueueSize bounds each subscriber's event channel (§5).
	SubscriberQueueSize int

	GC    GcPolicy
	Codec CodecOptions
}

// GcPolicy configures the Chunk Store's garbage collector (§4.B).
type GcPolicy struct {
	// ProtectLatest is the minimum number of most-recent rows per
	// (timeline, entity) that GC will never drop, regardless of target.
	ProtectLatest int

	// PurgeEmptyTables reclaims an Index's (timeline, entity) slot once
	// GC has removed its last chunk, rather than leaving an empty Index
	// allocated for a future insert to reuse.
	PurgeEmptyTables bool

	// TimeBudget is the soft wall-clock budget for one GC pass. Zero
	// means unbounded. Checked between chunk drops, never mid-drop
	// (§7 "GC errors are always reported, never thrown").
	TimeBudget time.Duration
}

// CodecOptions configures the Chunk Codec's migration container format
// (§6 "a 4-byte options field {compression: {off, lz4}, serializer:
// {msgpack}}").
type CodecOptions struct {
	// Compression selects the container format's payload compression.
	Compression CompressionKind
}

// CompressionKind is the closed set of compression options §6 allows for
// the migration container format.
type CompressionKind int

const (
	CompressionOff CompressionKind = iota
	CompressionLZ4
)

// Byte returns the format.Header compression byte for k.
func (k CompressionKind) Byte() byte {
	if k == CompressionLZ4 {
		return format.CompressionLZ4
	}
	return format.CompressionOff
}

// StoreConfig translates the declarative Config into the store package's
// runtime Config, the one point where this package's shape is wired to a
// live Chunk Store.
func (c Config) StoreConfig(logger *slog.Logger) store.Config {
	return store.Config{
		ChunkMaxRows:        c.ChunkMaxRows,
		ChunkMaxBytes:       c.ChunkMaxBytes,
		EnableChangelog:     c.EnableChangelog,
		GcProtectLatest:     c.GC.ProtectLatest,
		GcPurgeEmptyTables:  c.GC.PurgeEmptyTables,
		GcTimeBudget:        c.GC.TimeBudget,
		SubscriberQueueSize: c.SubscriberQueueSize,
		Logger:              logger,
	}
}

// Default returns the Config a fresh store starts with absent any
// persisted configuration.
func Default() Config {
	return Config{
		ChunkMaxRows:        4096,
		ChunkMaxBytes:       8 << 20,
		SubscriberQueueSize: 256,
		GC: GcPolicy{
			ProtectLatest:    1,
			PurgeEmptyTables: true,
		},
	}
}
