// Package sqlite implements the SQLite storage backend. All entity tables
// live in one database file under the configured data directory.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

// DatabaseFile is the name of the database file inside the data directory.
const DatabaseFile = "entitykeys.db"

// Backend implements types.Cupboard on top of SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
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

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach to open the database.
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
// Returns ErrCupboardDetached if the backend is not attached and
// ErrTableNotFound if no schema with that name was attached.
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

// Attach opens the database in config.DataDir, creating the directory and
// schema if needed, and serves one table per schema.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config, schemas types.SchemaSource) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Backend != types.BackendSQLite {
		return fmt.Errorf("%w: sqlite backend cannot serve %q", types.ErrBackendUnknown, config.Backend)
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	// A single connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("create schema: %w", err)
		}
	}

	b.db = db
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

	b.logger.Debug("sqlite backend attached", "path", dbPath, "tables", len(b.tables))
	return nil
}

// Detach closes the database. Detach is idempotent.
// After Detach, all operations return ErrCupboardDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	b.tables = make(map[string]*table)

	b.logger.Debug("sqlite backend detached", "data_dir", b.config.DataDir)
	return nil
}
