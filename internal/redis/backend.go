// Package redis implements a Redis storage backend. Each partition of an
// entity table is one Redis hash whose fields are row keys.
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

// DefaultConnectTimeout bounds the connection check done by Attach.
const DefaultConnectTimeout = 5 * time.Second

// Backend implements types.Cupboard on top of Redis.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	client   *goredis.Client
	tables   map[string]*table
	logger   *slog.Logger
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) { b.logger = l }
}

var _ types.Cupboard = (*Backend)(nil)

// NewBackend creates a new Redis backend instance.
// The backend is not attached; call Attach to connect.
func NewBackend(opts ...Option) *Backend {
	b := &Backend{
		tables: make(map[string]*table),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// GetTable returns the table for the named schema.
func (b *Backend) GetTable(name string) (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrCupboardDetached
	}
	t, ok := b.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrTableNotFound, name)
	}
	return t, nil
}

// Attach connects to the server named by config.Redis.URL and serves one
// table per schema. Empty URL and prefix fall back to the defaults.
func (b *Backend) Attach(config types.Config, schemas types.SchemaSource) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Backend != types.BackendRedis {
		return fmt.Errorf("%w: redis backend cannot serve %q", types.ErrBackendUnknown, config.Backend)
	}
	if config.Redis.URL == "" {
		config.Redis.URL = types.DefaultRedisURL
	}
	if config.Redis.Prefix == "" {
		config.Redis.Prefix = types.DefaultRedisPrefix
	}

	opts, err := goredis.ParseURL(config.Redis.URL)
	if err != nil {
		return fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opts.DialTimeout = DefaultConnectTimeout
	client := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), DefaultConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	b.client = client
	b.config = config
	b.tables = make(map[string]*table)
	if schemas != nil {
		for _, name := range schemas.Names() {
			s, ok := schemas.Schema(name)
			if !ok {
				continue
			}
			b.tables[name] = &table{schema: s, backend: b}
		}
	}
	b.attached = true

	b.logger.Debug("redis backend attached", "addr", opts.Addr, "db", opts.DB, "prefix", config.Redis.Prefix, "tables", len(b.tables))
	return nil
}

// Detach closes the client. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.client != nil {
		if err := b.client.Close(); err != nil {
			return err
		}
		b.client = nil
	}
	b.attached = false
	b.tables = make(map[string]*table)

	b.logger.Debug("redis backend detached", "prefix", b.config.Redis.Prefix)
	return nil
}

// hashKey names the Redis hash holding one partition. Neither key encoding
// emits ':', so the three parts cannot run into each other.
func (b *Backend) hashKey(tableName, partition string) string {
	return b.config.Redis.Prefix + ":" + tableName + ":" + partition
}
