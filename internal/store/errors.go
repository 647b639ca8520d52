package store

import "errors"

// ErrChunkNotFound is returned by operations that require a chunk id the
// store does not currently hold live (e.g. pinning).
var ErrChunkNotFound = errors.New("store: chunk not found")
