package chunk

import (
	"errors"
	"fmt"
)

// Error kinds from the error-handling design (§7). These are sentinel
// values, not a type hierarchy: callers check with errors.Is and wrap with
// fmt.Errorf("...: %w", err) to add context.
var (
	// ErrMalformedChunk means an invariant from the data model was violated
	// at construction. Fatal at ingest — the builder that produced it
	// should never have been handed to the store.
	ErrMalformedChunk = errors.New("chunk: malformed chunk")

	// ErrRowCountMismatch means the RowId column and at least one timeline
	// or component column disagree on length.
	ErrRowCountMismatch = fmt.Errorf("%w: row count mismatch across columns", ErrMalformedChunk)

	// ErrEmptyColumnSet means a chunk was built with zero timeline columns
	// and zero component columns, so it is neither temporal nor a
	// meaningful static record.
	ErrEmptyColumnSet = fmt.Errorf("%w: no timeline or component columns", ErrMalformedChunk)

	// ErrDuplicateRowId means two rows in the same chunk share a RowId,
	// breaking strict ascending order (invariant 2). Build does not return
	// it: a repeated RowId is reported as ErrNonAscendingRowId.
	ErrDuplicateRowId = errors.New("chunk: duplicate row id")

	// ErrStaticRowCount means a static chunk was built with a row count
	// other than one.
	ErrStaticRowCount = fmt.Errorf("%w: static chunk must have exactly one row", ErrMalformedChunk)

	// ErrUnknownTimelineType means a timeline column's declared type is
	// outside the closed set {Sequence, TimestampNs, DurationNs}.
	ErrUnknownTimelineType = fmt.Errorf("%w: unknown timeline type", ErrMalformedChunk)

	// ErrNullOnlyColumn means a required column (RowId, or a timeline
	// column that was declared present) is entirely null.
	ErrNullOnlyColumn = fmt.Errorf("%w: required column is entirely null", ErrMalformedChunk)
)

// ErrCorruptChunk means a previously stored chunk fails invariants when
// read back. Unlike ErrMalformedChunk, this is not fatal at the call site:
// per §7, callers should isolate the chunk, surface a warning, and skip it
// in the result rather than failing the whole query.
var ErrCorruptChunk = errors.New("chunk: corrupt chunk")
