package codec

import (
	"bytes"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"gastrolog/internal/chunk"
)

// EncodeChunk serializes c to its wire form: an Arrow IPC stream carrying
// exactly one record batch, laid out per §6.
func EncodeChunk(c *chunk.Chunk) ([]byte, error) {
	mem := memory.NewGoAllocator()
	rec, err := RecordOf(mem, c)
	if err != nil {
		return nil, err
	}
	defer rec.Release()

	var buf bytes.Buffer
	w := ipc.NewWriter(&buf, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(mem))
	if err := w.Write(rec); err != nil {
		return nil, fmt.Errorf("codec: write record: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("codec: close writer: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeChunk deserializes bytes previously produced by EncodeChunk. A
// stream with no record batches (an empty chunk, schema only) decodes to
// nil, nil — callers must check for that case explicitly.
func DecodeChunk(data []byte) (*chunk.Chunk, error) {
	rec, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	defer rec.Release()
	return ChunkOf(rec)
}

// decodeRecord deserializes the Arrow IPC stream without reconstructing a
// Chunk, so the migration pass can rewrite legacy metadata before ChunkOf
// runs. Returns (nil, nil) for a stream with no record batches.
func decodeRecord(data []byte) (arrow.Record, error) {
	mem := memory.NewGoAllocator()
	r, err := ipc.NewReader(bytes.NewReader(data), ipc.WithAllocator(mem))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptChunk, err)
	}
	defer r.Release()

	if !r.Next() {
		return nil, nil
	}
	rec := r.Record()
	rec.Retain()
	return rec, nil
}
