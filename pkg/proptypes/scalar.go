package proptypes

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

// StringType holds Go strings. It supports every key capability.
type StringType struct{}

// TextType holds long strings. Text is hashable and stringable but not
// comparable, so it cannot be used in a Property key entry.
type TextType struct{}

// NumberType holds float64 values. float32 and every Go integer type are
// accepted and converted; integers that float64 cannot represent exactly
// are rejected, since they would share a key with a neighbour.
type NumberType struct{}

// BooleanType holds bool values.
type BooleanType struct{}

// Built-in scalar types.
var (
	String  = StringType{}
	Text    = TextType{}
	Number  = NumberType{}
	Boolean = BooleanType{}
)

func mismatch(typ types.PropertyType, value any) error {
	return fmt.Errorf("%w: %s property cannot hold %T", types.ErrTypeMismatch, typ.TypeName(), value)
}

func (StringType) TypeName() string { return "string" }

func (t StringType) str(value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", mismatch(t, value)
	}
	return s, nil
}

func (t StringType) KeyString(value any) (string, error)  { return t.str(value) }
func (t StringType) HashString(value any) (string, error) { return t.str(value) }

func (t StringType) HashableBytes(value any) ([]byte, error) {
	s, err := t.str(value)
	return []byte(s), err
}

func (t StringType) ComparableBytes(value any) ([]byte, error) {
	s, err := t.str(value)
	return []byte(s), err
}

func (t StringType) DecodeValue(value any) (any, error) { return t.str(value) }

func (TextType) TypeName() string { return "text" }

func (TextType) KeyString(value any) (string, error)     { return String.KeyString(value) }
func (TextType) HashString(value any) (string, error)    { return String.HashString(value) }
func (TextType) HashableBytes(value any) ([]byte, error) { return String.HashableBytes(value) }
func (TextType) DecodeValue(value any) (any, error)      { return String.DecodeValue(value) }

func (NumberType) TypeName() string { return "number" }

func (t NumberType) float(value any) (float64, error) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case int:
		return exactInt(int64(v))
	case int64:
		return exactInt(v)
	case uint:
		return exactUint(uint64(v))
	case uint64:
		return exactUint(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", types.ErrTypeMismatch, err)
		}
		f = parsed
	default:
		return 0, mismatch(t, value)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: number must be finite, got %v", types.ErrInvalidData, f)
	}
	if f == 0 {
		f = 0 // folds -0 into +0
	}
	return f, nil
}

// exactInt converts v, failing if the conversion rounds.
func exactInt(v int64) (float64, error) {
	f := float64(v)
	if f >= 1<<63 || int64(f) != v {
		return 0, fmt.Errorf("%w: integer %d is not exactly representable as a number", types.ErrTypeMismatch, v)
	}
	return f, nil
}

// exactUint converts v, failing if the conversion rounds.
func exactUint(v uint64) (float64, error) {
	f := float64(v)
	if f >= 1<<64 || uint64(f) != v {
		return 0, fmt.Errorf("%w: integer %d is not exactly representable as a number", types.ErrTypeMismatch, v)
	}
	return f, nil
}

// KeyString formats plain decimals for magnitudes in [1e-7, 1e21) and
// exponent notation outside it.
func (t NumberType) KeyString(value any) (string, error) {
	f, err := t.float(value)
	if err != nil {
		return "", err
	}
	if a := math.Abs(f); a == 0 || (a >= 1e-7 && a < 1e21) {
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

func (t NumberType) HashString(value any) (string, error) { return t.KeyString(value) }

func (t NumberType) HashableBytes(value any) ([]byte, error) { return t.ComparableBytes(value) }

// ComparableBytes flips the sign bit of non-negative values and every bit
// of negative ones, which makes IEEE-754 big-endian bytes sort numerically.
func (t NumberType) ComparableBytes(value any) ([]byte, error) {
	f, err := t.float(value)
	if err != nil {
		return nil, err
	}
	bits := math.Float64bits(f)
	if bits&(1<<63) == 0 {
		bits ^= 1 << 63
	} else {
		bits = ^bits
	}
	return binary.BigEndian.AppendUint64(nil, bits), nil
}

func (t NumberType) DecodeValue(value any) (any, error) { return t.float(value) }

func (BooleanType) TypeName() string { return "boolean" }

func (t BooleanType) boolean(value any) (bool, error) {
	b, ok := value.(bool)
	if !ok {
		return false, mismatch(t, value)
	}
	return b, nil
}

func (t BooleanType) KeyString(value any) (string, error) {
	b, err := t.boolean(value)
	if err != nil {
		return "", err
	}
	return strconv.FormatBool(b), nil
}

func (t BooleanType) HashString(value any) (string, error) { return t.KeyString(value) }

func (t BooleanType) HashableBytes(value any) ([]byte, error) { return t.ComparableBytes(value) }

func (t BooleanType) ComparableBytes(value any) ([]byte, error) {
	b, err := t.boolean(value)
	if err != nil {
		return nil, err
	}
	if b {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}

func (t BooleanType) DecodeValue(value any) (any, error) { return t.boolean(value) }
