// Package ids defines the three opaque 128-bit identifier types used
// throughout the store: ChunkId, RowId, and StoreId. All three are
// UUIDv7-backed, so their natural byte order is creation order, which makes
// them simultaneously globally unique, lexicographically sortable, and
// hash-friendly.
package ids

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// idEncoding is base32hex (RFC 4648) lowercase without padding. Its
// alphabet (0-9a-v) preserves the lexicographic sort order of the
// underlying bytes, unlike standard base32 or base64.
var idEncoding = newBase32HexEncoding()

// ChunkId identifies a Chunk, globally and uniquely within a recording.
type ChunkId [16]byte

// RowId identifies a single row within any Chunk. RowId order is the only
// allowed tie-breaker for equal timestamps (§ Index tie-breaking).
type RowId [16]byte

// StoreId identifies a recording (a single Chunk Store instance).
type StoreId [16]byte

// NewChunkId creates a ChunkId from a fresh UUIDv7.
func NewChunkId() ChunkId { return ChunkId(uuid.Must(uuid.NewV7())) }

// NewRowId creates a RowId from a fresh UUIDv7.
func NewRowId() RowId { return RowId(uuid.Must(uuid.NewV7())) }

// NewStoreId creates a StoreId from a fresh UUIDv7.
func NewStoreId() StoreId { return StoreId(uuid.Must(uuid.NewV7())) }

// String returns the 26-character lowercase base32hex representation,
// tagged with a type prefix so ids printed in logs are self-describing.
func (id ChunkId) String() string { return "chunk_" + encode(id[:]) }
func (id RowId) String() string   { return "row_" + encode(id[:]) }
func (id StoreId) String() string { return "store_" + encode(id[:]) }

// Compare orders two ids lexicographically by byte value, which for
// UUIDv7-backed ids is equivalent to creation order.
func (id ChunkId) Compare(other ChunkId) int { return compareBytes(id[:], other[:]) }
func (id RowId) Compare(other RowId) int     { return compareBytes(id[:], other[:]) }
func (id StoreId) Compare(other StoreId) int { return compareBytes(id[:], other[:]) }

// Less reports whether id sorts before other. Provided for use as a
// slices.SortFunc-free convenience in hot comparison paths.
func (id RowId) Less(other RowId) bool { return id.Compare(other) < 0 }

// Time returns the creation time encoded in the UUIDv7 id (milliseconds
// since the Unix epoch, embedded in the first 6 bytes).
func (id ChunkId) Time() time.Time { return uuidTime(id[:]) }
func (id RowId) Time() time.Time   { return uuidTime(id[:]) }

// IsZero reports whether id is the zero value.
func (id ChunkId) IsZero() bool { return id == ChunkId{} }
func (id RowId) IsZero() bool   { return id == RowId{} }
func (id StoreId) IsZero() bool { return id == StoreId{} }

// ParseChunkId parses the "chunk_" + 26-char base32hex form produced by
// String. It also accepts the bare 26-character form for interop with
// external callers that strip the type prefix.
func ParseChunkId(s string) (ChunkId, error) {
	b, err := decode(strings.TrimPrefix(s, "chunk_"))
	if err != nil {
		return ChunkId{}, fmt.Errorf("ids: parse chunk id: %w", err)
	}
	var id ChunkId
	copy(id[:], b)
	return id, nil
}

// ParseRowId parses the "row_" + 26-char base32hex form produced by String.
func ParseRowId(s string) (RowId, error) {
	b, err := decode(strings.TrimPrefix(s, "row_"))
	if err != nil {
		return RowId{}, fmt.Errorf("ids: parse row id: %w", err)
	}
	var id RowId
	copy(id[:], b)
	return id, nil
}

func uuidTime(b []byte) time.Time {
	ms := int64(b[0])<<40 | int64(b[1])<<32 | int64(b[2])<<24 |
		int64(b[3])<<16 | int64(b[4])<<8 | int64(b[5])
	return time.UnixMilli(ms)
}

func compareBytes(a, b []byte) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
