package format

import "testing"

func TestHeaderEncode(t *testing.T) {
	h := Header{Magic: [4]byte{'R', 'R', 'F', '2'}, Version: 1, Compression: CompressionOff, Serializer: SerializerMsgPk}
	buf := h.Encode()

	if string(buf[0:4]) != MagicCurrent {
		t.Errorf("expected magic %q, got %q", MagicCurrent, buf[0:4])
	}
	if buf[8] != CompressionOff {
		t.Errorf("expected compression 0, got %d", buf[8])
	}
	if buf[9] != SerializerMsgPk {
		t.Errorf("expected serializer 0, got %d", buf[9])
	}
}

func TestHeaderEncodeInto(t *testing.T) {
	h := Header{Magic: [4]byte{'R', 'R', 'F', '2'}, Version: 2, Compression: CompressionLZ4, Serializer: SerializerMsgPk}
	buf := make([]byte, 20)
	n := h.EncodeInto(buf)

	if n != HeaderSize {
		t.Errorf("expected %d bytes written, got %d", HeaderSize, n)
	}
	if buf[8] != CompressionLZ4 {
		t.Errorf("expected compression lz4, got %d", buf[8])
	}
}

func TestDecode(t *testing.T) {
	h := Header{Magic: [4]byte{'R', 'R', 'F', '2'}, Version: 3, Compression: CompressionOff, Serializer: SerializerMsgPk}
	buf := h.Encode()

	decoded, err := Decode(buf[:])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.Version != 3 {
		t.Errorf("expected version 3, got %d", decoded.Version)
	}
	if !decoded.IsKnownMagic() {
		t.Errorf("expected known magic")
	}
	if decoded.IsLegacy() {
		t.Errorf("RRF2 should not be legacy")
	}
}

func TestDecodeHeaderTooSmall(t *testing.T) {
	buf := []byte{'R', 'R', 'F', '2', 0, 0, 0, 1} // only 8 bytes
	_, err := Decode(buf)
	if err != ErrHeaderTooSmall {
		t.Errorf("expected ErrHeaderTooSmall, got %v", err)
	}
}

func TestLegacyMagics(t *testing.T) {
	for _, magic := range []string{MagicV0, MagicV1} {
		h := Header{Magic: [4]byte(append([]byte(magic), 0, 0, 0, 0)[:4])}
		if !h.IsKnownMagic() {
			t.Errorf("%s should be a known magic", magic)
		}
		if !h.IsLegacy() {
			t.Errorf("%s should be legacy", magic)
		}
	}
}

func TestUnknownMagic(t *testing.T) {
	h := Header{Magic: [4]byte{'X', 'X', 'X', 'X'}}
	if h.IsKnownMagic() {
		t.Errorf("expected unknown magic")
	}
}

func TestRoundTrip(t *testing.T) {
	original := Header{Magic: [4]byte{'R', 'R', 'F', '2'}, Version: 5, Compression: CompressionLZ4, Serializer: SerializerMsgPk}
	buf := original.Encode()
	decoded, err := Decode(buf[:])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded != original {
		t.Errorf("roundtrip failed: expected %+v, got %+v", original, decoded)
	}
}
