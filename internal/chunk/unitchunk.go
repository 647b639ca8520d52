package chunk

import "fmt"

// UnitChunk is a Chunk statically known to hold exactly one row. The Static
// Table stores one UnitChunk per (entity, descriptor) pair; programming
// against UnitChunk rather than a bare Chunk documents that guarantee at
// the type level without duplicating Chunk's storage layout.
type UnitChunk struct {
	*Chunk
}

// NewUnitChunk wraps c as a UnitChunk, failing if c does not hold exactly
// one row.
func NewUnitChunk(c *Chunk) (UnitChunk, error) {
	if c.Len() != 1 {
		return UnitChunk{}, fmt.Errorf("%w: got %d rows", ErrStaticRowCount, c.Len())
	}
	return UnitChunk{Chunk: c}, nil
}
