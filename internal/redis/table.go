package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

// record is the JSON value stored in a partition hash field.
type record struct {
	Version    int              `json:"version"`
	ETag       string           `json:"etag"`
	Properties types.Properties `json:"properties"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// table implements types.Table for one entity schema.
type table struct {
	schema  types.TableSchema
	backend *Backend
}

// client returns the connected client, or ErrCupboardDetached. The caller
// must hold backend.mu.
func (t *table) client() (*goredis.Client, error) {
	if !t.backend.attached || t.backend.client == nil {
		return nil, types.ErrCupboardDetached
	}
	return t.backend.client, nil
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

	rec := record{
		Version:    t.schema.Version(),
		ETag:       uuid.Must(uuid.NewV7()).String(),
		Properties: props,
		UpdatedAt:  time.Now().UTC(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidData, err)
	}

	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()
	c, err := t.client()
	if err != nil {
		return nil, err
	}
	if err := c.HSet(ctx, t.backend.hashKey(t.schema.Name(), pk), rk, data).Err(); err != nil {
		return nil, fmt.Errorf("failed to put %s: %w", t.schema.Name(), err)
	}

	return &types.Entity{
		Table:        t.schema.Name(),
		PartitionKey: pk,
		RowKey:       rk,
		Version:      rec.Version,
		ETag:         rec.ETag,
		Properties:   props,
		UpdatedAt:    rec.UpdatedAt,
	}, nil
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
	c, err := t.client()
	if err != nil {
		return nil, err
	}
	data, err := c.HGet(ctx, t.backend.hashKey(t.schema.Name(), pk), rk).Result()
	if errors.Is(err, goredis.Nil) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", t.schema.Name(), err)
	}
	return t.decode(pk, rk, data)
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
	c, err := t.client()
	if err != nil {
		return err
	}
	n, err := c.HDel(ctx, t.backend.hashKey(t.schema.Name(), pk), rk).Result()
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", t.schema.Name(), err)
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
	c, err := t.client()
	if err != nil {
		return nil, err
	}
	fields, err := c.HGetAll(ctx, t.backend.hashKey(t.schema.Name(), pk)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", t.schema.Name(), err)
	}

	rowKeys := make([]string, 0, len(fields))
	for rk := range fields {
		rowKeys = append(rowKeys, rk)
	}
	sort.Strings(rowKeys)

	out := make([]*types.Entity, 0, len(rowKeys))
	for _, rk := range rowKeys {
		e, err := t.decode(pk, rk, fields[rk])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (t *table) decode(pk, rk, data string) (*types.Entity, error) {
	var rec record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("%w: %s/%s: %w", types.ErrInvalidData, pk, rk, err)
	}
	props, err := t.schema.DecodeProperties(rec.Properties)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrInvalidData, err)
	}
	return &types.Entity{
		Table:        t.schema.Name(),
		PartitionKey: pk,
		RowKey:       rk,
		Version:      rec.Version,
		ETag:         rec.ETag,
		Properties:   props,
		UpdatedAt:    rec.UpdatedAt,
	}, nil
}
