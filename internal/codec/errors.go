package codec

import "errors"

// Error kinds from the error-handling design (§7): CorruptChunk and
// MigrationUnsupported. Both are sentinel values, checked with errors.Is.
var (
	// ErrCorruptChunk means a decoded arrow.Record fails a Chunk invariant.
	// Per §7, callers isolate the chunk, log a warning, and skip it rather
	// than failing the whole read.
	ErrCorruptChunk = errors.New("codec: corrupt chunk")

	// ErrCorruptStream means a migration container's framing (length
	// prefix, msgpack envelope, or compressed payload) could not be
	// decoded at all, independent of any one chunk's content.
	ErrCorruptStream = errors.New("codec: corrupt stream")

	// ErrMigrationUnsupported means a stream's magic is not one this
	// codec recognizes, current or legacy. Fatal at the ingest boundary.
	ErrMigrationUnsupported = errors.New("codec: unsupported stream version")

	// ErrUnknownCompression means the header names a compression byte this
	// codec does not implement.
	ErrUnknownCompression = errors.New("codec: unknown compression option")
)
