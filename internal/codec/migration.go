package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"

	"gastrolog/internal/chunk"
	"gastrolog/internal/format"
)

// envelope is the length-prefixed message §6 describes: one Chunk's
// encoded Arrow IPC bytes, tagged with its schema hash so a reader can
// group same-shape chunks without decoding every one.
type envelope struct {
	SchemaHash uint64
	Data       []byte
}

// Writer appends chunks to a migration container stream: a header
// (format.Header) followed by a sequence of length-prefixed, optionally
// lz4-compressed, msgpack-encoded envelopes. Grounded in
// chunk/file/compress.go's header-flag-driven encoder selection and
// chunk/file/record.go's length-prefixed record framing.
type Writer struct {
	w           io.Writer
	compression byte
	wroteHeader bool
}

// NewWriter returns a Writer that compresses payloads per compression
// (format.CompressionOff or format.CompressionLZ4).
func NewWriter(w io.Writer, compression byte) *Writer {
	return &Writer{w: w, compression: compression}
}

// WriteChunk appends c to the stream, writing the container header first
// if this is the first call.
func (w *Writer) WriteChunk(c *chunk.Chunk) error {
	if !w.wroteHeader {
		header := format.Header{
			Version:     2,
			Compression: w.compression,
			Serializer:  format.SerializerMsgPk,
		}
		copy(header.Magic[:], format.MagicCurrent)
		buf := header.Encode()
		if _, err := w.w.Write(buf[:]); err != nil {
			return fmt.Errorf("codec: write header: %w", err)
		}
		w.wroteHeader = true
	}

	arrowBytes, err := EncodeChunk(c)
	if err != nil {
		return err
	}

	payload, err := msgpack.Marshal(envelope{SchemaHash: c.SchemaHash(), Data: arrowBytes})
	if err != nil {
		return fmt.Errorf("codec: marshal envelope: %w", err)
	}

	payload, err = w.compress(payload)
	if err != nil {
		return err
	}

	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(payload)))
	if _, err := w.w.Write(lenPrefix[:]); err != nil {
		return fmt.Errorf("codec: write length prefix: %w", err)
	}
	if _, err := w.w.Write(payload); err != nil {
		return fmt.Errorf("codec: write payload: %w", err)
	}
	return nil
}

func (w *Writer) compress(payload []byte) ([]byte, error) {
	switch w.compression {
	case format.CompressionOff:
		return payload, nil
	case format.CompressionLZ4:
		var buf bytes.Buffer
		zw := lz4.NewWriter(&buf)
		if _, err := zw.Write(payload); err != nil {
			return nil, fmt.Errorf("codec: lz4 compress: %w", err)
		}
		if err := zw.Close(); err != nil {
			return nil, fmt.Errorf("codec: lz4 compress: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, ErrUnknownCompression
	}
}

// Reader reads a migration container stream back into Chunks, running the
// migration pass transparently when the stream's magic is a legacy one
// (§6 "Readers accept older magics ... and run the migration pass before
// dispatch").
type Reader struct {
	r      io.Reader
	header format.Header
}

// NewReader reads and validates the container header. It returns
// ErrMigrationUnsupported if the magic is unknown.
func NewReader(r io.Reader) (*Reader, error) {
	var buf [format.HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}
	header, err := format.Decode(buf[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}
	if !header.IsKnownMagic() {
		return nil, fmt.Errorf("%w: magic %q", ErrMigrationUnsupported, header.Magic[:])
	}
	return &Reader{r: r, header: header}, nil
}

// Next reads and decodes the next chunk in the stream. It returns io.EOF
// once the stream is exhausted. A chunk that fails its invariants on
// decode surfaces as ErrCorruptChunk; per §7 the caller should skip it and
// keep reading rather than abort the whole stream.
func (r *Reader) Next() (*chunk.Chunk, error) {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(r.r, lenPrefix[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("%w: truncated length prefix", ErrCorruptStream)
		}
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenPrefix[:])

	payload := make([]byte, n)
	if _, err := io.ReadFull(r.r, payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}

	payload, err := r.decompress(payload)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := msgpack.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}

	rec, err := decodeRecord(env.Data)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: empty record in envelope", ErrCorruptChunk)
	}
	defer rec.Release()

	if r.header.IsLegacy() {
		rec, err = migrateFromMagic(string(r.header.Magic[:]), rec)
		if err != nil {
			return nil, err
		}
	}

	return ChunkOf(rec)
}

func (r *Reader) decompress(payload []byte) ([]byte, error) {
	switch r.header.Compression {
	case format.CompressionOff:
		return payload, nil
	case format.CompressionLZ4:
		zr := lz4.NewReader(bytes.NewReader(payload))
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4 decompress: %v", ErrCorruptStream, err)
		}
		return out, nil
	default:
		return nil, ErrUnknownCompression
	}
}
