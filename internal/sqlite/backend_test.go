package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/entitykeys/pkg/entity"
	"github.com/mesh-intelligence/entitykeys/pkg/keys"
	"github.com/mesh-intelligence/entitykeys/pkg/proptypes"
	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

// testRegistry declares an "items" entity partitioned by owner and keyed by
// a constant plus a numeric sequence.
func testRegistry(t *testing.T) *entity.Registry {
	t.Helper()
	items, err := entity.Configure(entity.Definition{
		Name:    "items",
		Version: 2,
		Properties: types.NewMapping().
			MustAdd("owner", proptypes.String).
			MustAdd("seq", proptypes.Number).
			MustAdd("note", proptypes.Text).
			MustAdd("seen", proptypes.Date),
		PartitionKey: keys.StringKey("owner"),
		RowKey:       keys.Entries(keys.Constant{Value: "item"}, keys.Property{Name: "seq"}),
	})
	require.NoError(t, err)
	reg, err := entity.NewRegistry(items)
	require.NoError(t, err)
	return reg
}

func setupBackend(t *testing.T) (*Backend, types.Table) {
	t.Helper()
	b := NewBackend()
	config := types.Config{
		Backend: types.BackendSQLite,
		DataDir: t.TempDir(),
	}
	require.NoError(t, b.Attach(config, testRegistry(t)))
	t.Cleanup(func() { b.Detach() })

	tbl, err := b.GetTable("items")
	require.NoError(t, err)
	return b, tbl
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "nested")

	b := NewBackend()
	config := types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}
	require.NoError(t, b.Attach(config, testRegistry(t)))
	defer b.Detach()

	_, err := os.Stat(filepath.Join(tmpDir, DatabaseFile))
	assert.NoError(t, err, "database file not created")

	err = b.Attach(config, testRegistry(t))
	assert.ErrorIs(t, err, types.ErrAlreadyAttached)
}

func TestBackend_AttachRejectsConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  types.Config
		wantErr error
	}{
		{"empty backend", types.Config{DataDir: t.TempDir()}, types.ErrBackendEmpty},
		{"unknown backend", types.Config{Backend: "dynamo", DataDir: t.TempDir()}, types.ErrBackendUnknown},
		{"other backend", types.Config{Backend: types.BackendRedis}, types.ErrBackendUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBackend()
			err := b.Attach(tt.config, testRegistry(t))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestBackend_Detach(t *testing.T) {
	b, tbl := setupBackend(t)

	require.NoError(t, b.Detach())
	assert.NoError(t, b.Detach(), "second Detach should not error")

	_, err := b.GetTable("items")
	assert.ErrorIs(t, err, types.ErrCupboardDetached)

	_, err = tbl.Get(context.Background(), types.Properties{"owner": "a", "seq": 1})
	assert.ErrorIs(t, err, types.ErrCupboardDetached)
}

func TestBackend_GetTableUnknown(t *testing.T) {
	b, _ := setupBackend(t)
	_, err := b.GetTable("nope")
	assert.ErrorIs(t, err, types.ErrTableNotFound)
}

func TestBackend_ReattachKeepsData(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	config := types.Config{Backend: types.BackendSQLite, DataDir: dir}

	b := NewBackend()
	require.NoError(t, b.Attach(config, testRegistry(t)))
	tbl, err := b.GetTable("items")
	require.NoError(t, err)
	_, err = tbl.Put(ctx, types.Properties{"owner": "ann", "seq": 1, "note": "kept"})
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	b = NewBackend()
	require.NoError(t, b.Attach(config, testRegistry(t)))
	defer b.Detach()
	tbl, err = b.GetTable("items")
	require.NoError(t, err)
	got, err := tbl.Get(ctx, types.Properties{"owner": "ann", "seq": 1})
	require.NoError(t, err)
	assert.Equal(t, "kept", got.Properties["note"])
}

func TestTable_PutGet(t *testing.T) {
	ctx := context.Background()
	_, tbl := setupBackend(t)

	put, err := tbl.Put(ctx, types.Properties{"owner": "a/b", "seq": 7, "note": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "items", put.Table)
	assert.Equal(t, "a!2Fb", put.PartitionKey)
	assert.Equal(t, 2, put.Version)
	assert.NotEmpty(t, put.ETag)

	got, err := tbl.Get(ctx, types.Properties{"owner": "a/b", "seq": 7})
	require.NoError(t, err)
	assert.Equal(t, put.RowKey, got.RowKey)
	assert.Equal(t, put.ETag, got.ETag)
	assert.Equal(t, "hello", got.Properties["note"])
	assert.Equal(t, 7.0, got.Properties["seq"])
	assert.Equal(t, put.UpdatedAt.UnixNano(), got.UpdatedAt.UnixNano())
}

func TestTable_PutReplacesAndRefreshesETag(t *testing.T) {
	ctx := context.Background()
	_, tbl := setupBackend(t)

	first, err := tbl.Put(ctx, types.Properties{"owner": "a", "seq": 1, "note": "v1"})
	require.NoError(t, err)
	second, err := tbl.Put(ctx, types.Properties{"owner": "a", "seq": 1, "note": "v2"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ETag, second.ETag)

	list, err := tbl.List(ctx, types.Properties{"owner": "a"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "v2", list[0].Properties["note"])
}

func TestTable_PutNormalizesValues(t *testing.T) {
	ctx := context.Background()
	things, err := entity.Configure(entity.Definition{
		Name: "things",
		Properties: types.NewMapping().
			MustAdd("group", proptypes.String).
			MustAdd("id", proptypes.SlugID).
			MustAdd("count", proptypes.Number),
		PartitionKey: keys.StringKey("group"),
		RowKey:       keys.Entries(keys.Property{Name: "id"}),
	})
	require.NoError(t, err)
	reg, err := entity.NewRegistry(things)
	require.NoError(t, err)

	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}, reg))
	t.Cleanup(func() { b.Detach() })
	tbl, err := b.GetTable("things")
	require.NoError(t, err)

	id := uuid.New()
	slug := proptypes.EncodeSlugID(id)
	put, err := tbl.Put(ctx, types.Properties{"group": "g", "id": id, "count": 3})
	require.NoError(t, err)
	assert.Equal(t, slug, put.Properties["id"])
	assert.Equal(t, 3.0, put.Properties["count"])

	got, err := tbl.Get(ctx, types.Properties{"group": "g", "id": id})
	require.NoError(t, err)
	assert.Equal(t, put.Properties, got.Properties)

	bySlug, err := tbl.Get(ctx, types.Properties{"group": "g", "id": slug})
	require.NoError(t, err)
	assert.Equal(t, got.RowKey, bySlug.RowKey)

	list, err := tbl.List(ctx, types.Properties{"group": "g"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, slug, list[0].Properties["id"])
}

func TestTable_PutRejectsInvalidProperties(t *testing.T) {
	ctx := context.Background()
	_, tbl := setupBackend(t)

	tests := []struct {
		name    string
		props   types.Properties
		wantErr error
	}{
		{"unmapped property", types.Properties{"owner": "a", "seq": 1, "extra": true}, types.ErrInvalidData},
		{"wrong type", types.Properties{"owner": "a", "seq": "one"}, types.ErrTypeMismatch},
		{"missing key property", types.Properties{"owner": "a"}, types.ErrMissingProperty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tbl.Put(ctx, tt.props)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTable_GetNotFound(t *testing.T) {
	_, tbl := setupBackend(t)
	_, err := tbl.Get(context.Background(), types.Properties{"owner": "a", "seq": 1})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestTable_Delete(t *testing.T) {
	ctx := context.Background()
	_, tbl := setupBackend(t)
	addr := types.Properties{"owner": "a", "seq": 3}

	_, err := tbl.Put(ctx, addr)
	require.NoError(t, err)
	require.NoError(t, tbl.Delete(ctx, addr))

	_, err = tbl.Get(ctx, addr)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, tbl.Delete(ctx, addr), types.ErrNotFound)
}

func TestTable_ListOrdersByRowKey(t *testing.T) {
	ctx := context.Background()
	_, tbl := setupBackend(t)

	for _, seq := range []float64{10, -2, 3.5, 0, 100, 2} {
		_, err := tbl.Put(ctx, types.Properties{"owner": "a", "seq": seq})
		require.NoError(t, err)
	}
	_, err := tbl.Put(ctx, types.Properties{"owner": "b", "seq": 1})
	require.NoError(t, err)

	list, err := tbl.List(ctx, types.Properties{"owner": "a"})
	require.NoError(t, err)

	var seqs []any
	for _, e := range list {
		seqs = append(seqs, e.Properties["seq"])
	}
	assert.Equal(t, []any{-2.0, 0.0, 2.0, 3.5, 10.0, 100.0}, seqs)
}

func TestTable_ListEmptyPartition(t *testing.T) {
	_, tbl := setupBackend(t)
	list, err := tbl.List(context.Background(), types.Properties{"owner": "nobody"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTable_ConcurrentPuts(t *testing.T) {
	ctx := context.Background()
	_, tbl := setupBackend(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := tbl.Put(ctx, types.Properties{"owner": "c", "seq": i})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	list, err := tbl.List(ctx, types.Properties{"owner": "c"})
	require.NoError(t, err)
	assert.Len(t, list, 20)
}
