package ids

import (
	"encoding/base32"
	"strings"
)

func newBase32HexEncoding() *base32.Encoding {
	return base32.HexEncoding.WithPadding(base32.NoPadding)
}

func encode(b []byte) string {
	return strings.ToLower(idEncoding.EncodeToString(b))
}

func decode(s string) ([]byte, error) {
	return idEncoding.DecodeString(strings.ToUpper(s))
}
