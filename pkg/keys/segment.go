package keys

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

// Compiled key layout. Do not change these; they are part of every key
// already written.
const (
	KeyPrefix    = '~'
	KeySeparator = '~'
)

// segmentAlphabet is base64 with its 64 symbols sorted by ASCII value, so
// encoded segments compare in the same order as the bytes they encode.
const segmentAlphabet = ".0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

var segmentEncoding = base64.NewEncoding(segmentAlphabet).WithPadding(base64.NoPadding)

// EncodeSegment encodes raw bytes with the order-preserving alphabet.
func EncodeSegment(data []byte) string {
	return segmentEncoding.EncodeToString(data)
}

// DecodeSegment reverses EncodeSegment.
func DecodeSegment(s string) ([]byte, error) {
	data, err := segmentEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: segment %q: %v", types.ErrInvalidKey, s, err)
	}
	return data, nil
}

// SplitKey decodes a key produced by CompiledKey.Render back into its raw
// per-entry segments. Hash-group segments come back as digests; property
// segments as the comparable bytes of the value.
func SplitKey(key string) ([][]byte, error) {
	if len(key) == 0 || key[0] != KeyPrefix {
		return nil, fmt.Errorf("%w: compiled key must start with %q", types.ErrInvalidKey, KeyPrefix)
	}
	parts := strings.Split(key[1:], string(KeySeparator))
	out := make([][]byte, 0, len(parts))
	for _, p := range parts {
		data, err := DecodeSegment(p)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}
