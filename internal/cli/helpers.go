package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mesh-intelligence/entitykeys/pkg/entity"
	"github.com/mesh-intelligence/entitykeys/pkg/store"
	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

// parseAssignments turns name=value arguments into a map. A name may
// appear only once.
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q: want name=value", arg)
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("property %q given twice", name)
		}
		out[name] = value
	}
	return out, nil
}

// loadRegistry reads the configured schema file.
func (a *app) loadRegistry() (*entity.Registry, error) {
	reg, err := entity.LoadFile(a.settings.schemaFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, userError(fmt.Errorf("schema file %s not found (run \"entitykeys init\" or pass --schema)", a.settings.schemaFile))
	}
	if err != nil {
		return nil, classify(err)
	}
	return reg, nil
}

// schemaAndProps resolves the entity schema named by args[0] and parses
// the remaining name=value arguments against it.
func (a *app) schemaAndProps(args []string) (*entity.Registry, *entity.Schema, types.Properties, error) {
	reg, err := a.loadRegistry()
	if err != nil {
		return nil, nil, nil, err
	}
	s, err := reg.Get(args[0])
	if err != nil {
		return nil, nil, nil, userError(fmt.Errorf("%w (known: %s)", err, strings.Join(reg.Names(), ", ")))
	}
	raw, err := parseAssignments(args[1:])
	if err != nil {
		return nil, nil, nil, userError(err)
	}
	props, err := s.ParseProperties(raw)
	if err != nil {
		return nil, nil, nil, userError(err)
	}
	return reg, s, props, nil
}

// openTable attaches the configured backend and returns the named table.
// The caller must call the returned close function.
func (a *app) openTable(reg *entity.Registry, name string) (types.Table, func(), error) {
	c, err := store.Open(a.settings.config, reg, store.Options{Logger: a.logger})
	if err != nil {
		return nil, nil, classify(fmt.Errorf("attach backend: %w", err))
	}
	closeFn := func() {
		if err := c.Detach(); err != nil {
			a.logger.Warn("detach failed", "error", err)
		}
	}
	t, err := c.GetTable(name)
	if err != nil {
		closeFn()
		return nil, nil, classify(err)
	}
	return t, closeFn, nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal output: %w", err))
	}
	fmt.Fprintln(w, string(data))
	return nil
}
