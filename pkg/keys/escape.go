package keys

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

// emptyStringKey is the encoding of the empty string. An empty token would
// be ambiguous inside composite keys and for prefix matching.
const emptyStringKey = "!"

const upperHex = "0123456789ABCDEF"

// EncodeStringKey escapes s so it only contains characters allowed in
// table-storage keys. The result is URI-component encoding with '!' and '~'
// escaped as well and every '%' replaced by '!'. The empty string encodes
// to "!".
func EncodeStringKey(s string) string {
	if s == "" {
		return emptyStringKey
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '!':
			b.WriteString("!21")
		case c == '~':
			// Lower case to match keys already written by older writers.
			b.WriteString("!7e")
		case isUnreserved(c):
			b.WriteByte(c)
		default:
			b.WriteByte('!')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&0x0f])
		}
	}
	return b.String()
}

// DecodeStringKey reverses EncodeStringKey. Returns an error wrapping
// types.ErrInvalidKey if key contains a malformed escape.
func DecodeStringKey(key string) (string, error) {
	if key == emptyStringKey {
		return "", nil
	}
	var b strings.Builder
	b.Grow(len(key))
	for i := 0; i < len(key); i++ {
		c := key[i]
		if c != '!' {
			b.WriteByte(c)
			continue
		}
		if i+2 >= len(key) {
			return "", fmt.Errorf("%w: truncated escape at offset %d in %q", types.ErrInvalidKey, i, key)
		}
		hi, ok1 := unhex(key[i+1])
		lo, ok2 := unhex(key[i+2])
		if !ok1 || !ok2 {
			return "", fmt.Errorf("%w: bad escape %q at offset %d", types.ErrInvalidKey, key[i:i+3], i)
		}
		b.WriteByte(hi<<4 | lo)
		i += 2
	}
	return b.String(), nil
}

// isUnreserved reports whether c passes through URI-component encoding
// unchanged.
func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
