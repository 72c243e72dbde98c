// Package store is the public entry point for opening a Cupboard. The
// backend implementations stay internal; callers pick one by name in
// types.Config.
package store

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/mesh-intelligence/entitykeys/internal/redis"
	"github.com/mesh-intelligence/entitykeys/internal/sqlite"
	"github.com/mesh-intelligence/entitykeys/internal/tracing"
	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

// Options tune Open. The zero value is usable.
type Options struct {
	// Logger receives backend lifecycle events. Nil means slog.Default().
	Logger *slog.Logger
	// Tracer, when set, wraps every table in OpenTelemetry spans.
	Tracer trace.Tracer
}

// NewBackend creates an unattached backend for the named kind.
// Returns an error wrapping ErrBackendUnknown for other names.
func NewBackend(kind string, logger *slog.Logger) (types.Cupboard, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch kind {
	case types.BackendSQLite:
		return sqlite.NewBackend(sqlite.WithLogger(logger)), nil
	case types.BackendRedis:
		return redis.NewBackend(redis.WithLogger(logger)), nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, kind)
	}
}

// Open creates the backend named by config.Backend and attaches it.
//
// Example:
//
//	reg, _ := entity.LoadFile("schema.yaml")
//	c, err := store.Open(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".entitykeys-db",
//	}, reg, store.Options{})
//	defer c.Detach()
func Open(config types.Config, schemas types.SchemaSource, opts Options) (types.Cupboard, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c, err := NewBackend(config.Backend, opts.Logger)
	if err != nil {
		return nil, err
	}
	if err := c.Attach(config, schemas); err != nil {
		return nil, err
	}
	if opts.Tracer != nil {
		c = tracing.WrapCupboard(c, opts.Tracer)
	}
	return c, nil
}
