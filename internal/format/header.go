// Package format provides the shared binary envelope for persisted chunk
// streams: the magic/version/options header from the chunk codec's
// migration-header contract.
package format

import (
	"encoding/binary"
	"errors"
)

// Header layout (12 bytes):
//
//	magic   (4 bytes, ASCII, one of "RRF2" current, "RRF1"/"RRF0" legacy)
//	version (4 bytes, big-endian uint32)
//	options (4 bytes: [0]=compression, [1]=serializer, [2:4]=reserved)
const (
	HeaderSize = 12

	MagicCurrent = "RRF2"
	MagicV1      = "RRF1"
	MagicV0      = "RRF0"

	CompressionOff  byte = 0
	CompressionLZ4  byte = 1
	SerializerMsgPk byte = 0
)

var (
	ErrHeaderTooSmall = errors.New("format: header too small")
	ErrUnknownMagic   = errors.New("format: unknown magic")
)

// Header is the fixed-size envelope at the start of every persisted chunk
// stream. Readers decode it before dispatching the rest of the stream to a
// version-appropriate decoder.
type Header struct {
	Magic       [4]byte
	Version     uint32
	Compression byte
	Serializer  byte
}

// Encode writes the header to a fixed 12-byte array.
func (h Header) Encode() [HeaderSize]byte {
	var buf [HeaderSize]byte
	h.EncodeInto(buf[:])
	return buf
}

// EncodeInto writes the header into buf at offset 0 and returns the number
// of bytes written (always HeaderSize). buf must be at least HeaderSize
// bytes long.
func (h Header) EncodeInto(buf []byte) int {
	copy(buf[0:4], h.Magic[:])
	binary.BigEndian.PutUint32(buf[4:8], h.Version)
	buf[8] = h.Compression
	buf[9] = h.Serializer
	buf[10] = 0
	buf[11] = 0
	return HeaderSize
}

// Decode reads a header from buf. It does not validate the magic; callers
// that need to reject unknown streams should call IsKnownMagic.
func Decode(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrHeaderTooSmall
	}
	var h Header
	copy(h.Magic[:], buf[0:4])
	h.Version = binary.BigEndian.Uint32(buf[4:8])
	h.Compression = buf[8]
	h.Serializer = buf[9]
	return h, nil
}

// IsKnownMagic reports whether the header's magic is one this codec
// recognizes, current or legacy.
func (h Header) IsKnownMagic() bool {
	switch string(h.Magic[:]) {
	case MagicCurrent, MagicV1, MagicV0:
		return true
	default:
		return false
	}
}

// IsLegacy reports whether the header names an older magic that requires a
// migration pass before its messages reach the current decoder.
func (h Header) IsLegacy() bool {
	switch string(h.Magic[:]) {
	case MagicV1, MagicV0:
		return true
	default:
		return false
	}
}
