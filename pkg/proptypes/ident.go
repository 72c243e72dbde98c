package proptypes

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

// DateType holds time.Time values at millisecond precision, in UTC.
type DateType struct{}

// SlugIDType holds UUIDs written as 22 characters of unpadded URL-safe
// base64. Values may be given as slug strings or uuid.UUID.
type SlugIDType struct{}

// UUIDType holds UUIDs in canonical text form. Values may be given as
// strings or uuid.UUID.
type UUIDType struct{}

// JSONType holds arbitrary JSON-encodable values. It is only hashable.
type JSONType struct{}

// Built-in identifier and structured types.
var (
	Date   = DateType{}
	SlugID = SlugIDType{}
	UUID   = UUIDType{}
	JSON   = JSONType{}
)

// dateLayout matches the output of JavaScript's Date.toJSON.
const dateLayout = "2006-01-02T15:04:05.000Z07:00"

func (DateType) TypeName() string { return "date" }

func (t DateType) parse(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Truncate(time.Millisecond), nil
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", types.ErrTypeMismatch, err)
		}
		return parsed.UTC().Truncate(time.Millisecond), nil
	default:
		return time.Time{}, mismatch(t, value)
	}
}

func (t DateType) KeyString(value any) (string, error) {
	tm, err := t.parse(value)
	if err != nil {
		return "", err
	}
	return tm.Format(dateLayout), nil
}

func (t DateType) HashString(value any) (string, error)     { return t.KeyString(value) }
func (t DateType) HashableBytes(value any) ([]byte, error) { return t.ComparableBytes(value) }

// ComparableBytes encodes milliseconds since the epoch, big-endian with
// the sign bit flipped.
func (t DateType) ComparableBytes(value any) ([]byte, error) {
	tm, err := t.parse(value)
	if err != nil {
		return nil, err
	}
	return binary.BigEndian.AppendUint64(nil, uint64(tm.UnixMilli())^(1<<63)), nil
}

func (t DateType) DecodeValue(value any) (any, error) { return t.parse(value) }

// NewSlugID returns a slug for a fresh random UUID.
func NewSlugID() string {
	return EncodeSlugID(uuid.New())
}

// EncodeSlugID writes id as a slug.
func EncodeSlugID(id uuid.UUID) string {
	return base64.RawURLEncoding.EncodeToString(id[:])
}

// DecodeSlugID parses a slug back into a UUID.
func DecodeSlugID(slug string) (uuid.UUID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(slug)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid slugid %q: %v", types.ErrTypeMismatch, slug, err)
	}
	id, err := uuid.FromBytes(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid slugid %q: %v", types.ErrTypeMismatch, slug, err)
	}
	return id, nil
}

func (SlugIDType) TypeName() string { return "slugid" }

func (t SlugIDType) id(value any) (uuid.UUID, error) {
	switch v := value.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		return DecodeSlugID(v)
	default:
		return uuid.Nil, mismatch(t, value)
	}
}

func (t SlugIDType) KeyString(value any) (string, error) {
	id, err := t.id(value)
	if err != nil {
		return "", err
	}
	return EncodeSlugID(id), nil
}

func (t SlugIDType) HashString(value any) (string, error)     { return t.KeyString(value) }
func (t SlugIDType) HashableBytes(value any) ([]byte, error) { return t.ComparableBytes(value) }

func (t SlugIDType) ComparableBytes(value any) ([]byte, error) {
	id, err := t.id(value)
	if err != nil {
		return nil, err
	}
	return id[:], nil
}

// DecodeValue returns the slug string form.
func (t SlugIDType) DecodeValue(value any) (any, error) { return t.KeyString(value) }

func (UUIDType) TypeName() string { return "uuid" }

func (t UUIDType) id(value any) (uuid.UUID, error) {
	switch v := value.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, fmt.Errorf("%w: invalid uuid %q: %v", types.ErrTypeMismatch, v, err)
		}
		return id, nil
	default:
		return uuid.Nil, mismatch(t, value)
	}
}

func (t UUIDType) KeyString(value any) (string, error) {
	id, err := t.id(value)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (t UUIDType) HashString(value any) (string, error)     { return t.KeyString(value) }
func (t UUIDType) HashableBytes(value any) ([]byte, error) { return t.ComparableBytes(value) }

func (t UUIDType) ComparableBytes(value any) ([]byte, error) {
	id, err := t.id(value)
	if err != nil {
		return nil, err
	}
	return id[:], nil
}

// DecodeValue returns the canonical string form.
func (t UUIDType) DecodeValue(value any) (any, error) { return t.KeyString(value) }

func (JSONType) TypeName() string { return "json" }

// HashableBytes marshals value with encoding/json, which sorts map keys,
// so equal documents hash equally.
func (JSONType) HashableBytes(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrTypeMismatch, err)
	}
	return data, nil
}
