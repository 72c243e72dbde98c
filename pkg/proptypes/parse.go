package proptypes

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

var (
	_ types.StringParser = String
	_ types.StringParser = Text
	_ types.StringParser = Number
	_ types.StringParser = Boolean
	_ types.StringParser = Date
	_ types.StringParser = SlugID
	_ types.StringParser = UUID
	_ types.StringParser = JSON
)

func (StringType) ParseString(s string) (any, error) { return s, nil }
func (TextType) ParseString(s string) (any, error)   { return s, nil }

func (t NumberType) ParseString(s string) (any, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a number", types.ErrTypeMismatch, s)
	}
	return t.float(f)
}

func (BooleanType) ParseString(s string) (any, error) {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a boolean", types.ErrTypeMismatch, s)
	}
	return b, nil
}

func (t DateType) ParseString(s string) (any, error)   { return t.parse(s) }
func (t SlugIDType) ParseString(s string) (any, error) { return t.KeyString(s) }
func (t UUIDType) ParseString(s string) (any, error)   { return t.KeyString(s) }

// ParseString decodes s as a JSON document.
func (JSONType) ParseString(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrTypeMismatch, err)
	}
	return v, nil
}
