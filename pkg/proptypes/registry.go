package proptypes

import (
	"fmt"
	"sort"

	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

var builtin = map[string]types.PropertyType{}

func init() {
	for _, t := range []types.PropertyType{String, Text, Number, Boolean, Date, SlugID, UUID, JSON} {
		builtin[t.TypeName()] = t
	}
}

// Lookup returns the built-in type with the given name.
// Returns an error wrapping types.ErrInvalidValueType for unknown names.
func Lookup(name string) (types.PropertyType, error) {
	t, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", types.ErrInvalidValueType, name, Names())
	}
	return t, nil
}

// Names returns the names of the built-in types, sorted.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for n := range builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
