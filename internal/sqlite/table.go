package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

// table implements types.Table for one entity schema.
type table struct {
	schema  types.TableSchema
	backend *Backend
}

// newETag generates a UUID v7 string.
func newETag() string {
	return uuid.Must(uuid.NewV7()).String()
}

// db returns the open database, or ErrCupboardDetached. The caller must
// hold backend.mu.
func (t *table) db() (*sql.DB, error) {
	if !t.backend.attached || t.backend.db == nil {
		return nil, types.ErrCupboardDetached
	}
	return t.backend.db, nil
}

// Put creates or replaces the entity addressed by props.
func (t *table) Put(ctx context.Context, props types.Properties) (*types.Entity, error) {
	if err := t.schema.Validate(props); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidData, err)
	}
	// Normalize to the values Get decodes.
	props, err := t.schema.DecodeProperties(props)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidData, err)
	}
	pk, rk, err := t.schema.Keys(props)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidData, err)
	}

	e := &types.Entity{
		Table:        t.schema.Name(),
		PartitionKey: pk,
		RowKey:       rk,
		Version:      t.schema.Version(),
		ETag:         newETag(),
		Properties:   props,
		UpdatedAt:    time.Now().UTC(),
	}

	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	db, err := t.db()
	if err != nil {
		return nil, err
	}
	_, err = db.ExecContext(ctx, upsertEntity,
		e.Table, pk, rk, e.Version, e.ETag, string(data), e.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("put %s: %w", e.Table, err)
	}
	return e, nil
}

// Get loads the entity addressed by props.
// Returns ErrNotFound if no entity exists at that address.
func (t *table) Get(ctx context.Context, props types.Properties) (*types.Entity, error) {
	pk, rk, err := t.schema.Keys(props)
	if err != nil {
		return nil, err
	}

	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	db, err := t.db()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx, selectEntity, t.schema.Name(), pk, rk)
	e, err := t.scan(row, pk)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	return e, err
}

// Delete removes the entity addressed by props.
// Returns ErrNotFound if no entity exists at that address.
func (t *table) Delete(ctx context.Context, props types.Properties) error {
	pk, rk, err := t.schema.Keys(props)
	if err != nil {
		return err
	}

	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	db, err := t.db()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, deleteEntity, t.schema.Name(), pk, rk)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.schema.Name(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// List returns the entities in the partition addressed by props, ordered
// by row key.
func (t *table) List(ctx context.Context, props types.Properties) ([]*types.Entity, error) {
	pk, err := t.schema.PartitionKey(props)
	if err != nil {
		return nil, err
	}

	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	db, err := t.db()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, selectPartition, t.schema.Name(), pk)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.schema.Name(), err)
	}
	defer rows.Close()

	var out []*types.Entity
	for rows.Next() {
		e, err := t.scan(rows, pk)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (t *table) scan(s scanner, pk string) (*types.Entity, error) {
	var (
		rk, etag, data, updated string
		version                 int
	)
	if err := s.Scan(&rk, &version, &etag, &data, &updated); err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("%w: properties of %s/%s: %w", types.ErrInvalidData, pk, rk, err)
	}
	props, err := t.schema.DecodeProperties(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidData, err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, updated)
	if err != nil {
		return nil, fmt.Errorf("%w: updated_at %q: %w", types.ErrInvalidData, updated, err)
	}

	return &types.Entity{
		Table:        t.schema.Name(),
		PartitionKey: pk,
		RowKey:       rk,
		Version:      version,
		ETag:         etag,
		Properties:   props,
		UpdatedAt:    updatedAt,
	}, nil
}
