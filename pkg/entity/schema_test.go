package entity

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mesh-intelligence/entitykeys/pkg/keys"
	"github.com/mesh-intelligence/entitykeys/pkg/proptypes"
	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

func itemsDefinition() Definition {
	return Definition{
		Name: "items",
		Properties: types.NewMapping().
			MustAdd("id", proptypes.String).
			MustAdd("data", proptypes.Number).
			MustAdd("text1", proptypes.String).
			MustAdd("text2", proptypes.String).
			MustAdd("at", proptypes.Date),
		PartitionKey: keys.Entries(keys.Constant{Value: "my-constant"}, keys.Property{Name: "id"}),
		RowKey:       keys.CompositeKey("text1", "text2"),
	}
}

func TestConfigure(t *testing.T) {
	s, err := Configure(itemsDefinition())
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if s.Name() != "items" {
		t.Errorf("Name() = %q", s.Name())
	}
	if s.Version() != 1 {
		t.Errorf("Version() = %d, want default 1", s.Version())
	}

	pk, rk, err := s.Keys(types.Properties{"id": "abc", "text1": "x", "text2": "y"})
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if pk != "~QMZhNqxiRrGWQbF~NL8Y" {
		t.Errorf("partition key = %q", pk)
	}
	if rk != "x~y" {
		t.Errorf("row key = %q", rk)
	}

	only, err := s.PartitionKey(types.Properties{"id": "abc"})
	if err != nil {
		t.Fatalf("PartitionKey: %v", err)
	}
	if only != pk {
		t.Errorf("PartitionKey = %q, want %q", only, pk)
	}

	want := []string{"id", "text1", "text2"}
	got := s.Covers()
	if len(got) != len(want) {
		t.Fatalf("Covers() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Covers()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestConfigureRejects(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*Definition)
		wantErr    error
		wantSchema bool
	}{
		{"empty name", func(d *Definition) { d.Name = "" }, types.ErrInvalidName, false},
		{"negative version", func(d *Definition) { d.Version = -1 }, types.ErrInvalidEntry, false},
		{"no row key", func(d *Definition) { d.RowKey = nil }, types.ErrInvalidEntry, false},
		{
			"partition key over unmapped property",
			func(d *Definition) { d.PartitionKey = keys.Entries(keys.Property{Name: "nope"}) },
			types.ErrUnknownProperty, true,
		},
		{
			"row key definition too short",
			func(d *Definition) { d.RowKey = keys.Entries() },
			types.ErrDefinitionTooShort, true,
		},
		{
			"composite over nothing",
			func(d *Definition) { d.RowKey = keys.CompositeKey() },
			types.ErrInvalidEntry, true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := itemsDefinition()
			tt.mutate(&def)
			s, err := Configure(def)
			if s != nil {
				t.Fatal("Configure returned a schema for an invalid definition")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Configure error = %v, want %v", err, tt.wantErr)
			}
			var se *types.SchemaError
			if errors.As(err, &se) != tt.wantSchema {
				t.Errorf("errors.As(SchemaError) = %v, want %v", !tt.wantSchema, tt.wantSchema)
			}
		})
	}
}

func TestMustConfigurePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustConfigure did not panic")
		}
	}()
	def := itemsDefinition()
	def.Name = ""
	MustConfigure(def)
}

func TestKeysMissingProperty(t *testing.T) {
	s := MustConfigure(itemsDefinition())
	_, _, err := s.Keys(types.Properties{"id": "abc", "text1": "x"})
	var mpe *types.MissingPropertyError
	if !errors.As(err, &mpe) {
		t.Fatalf("Keys error = %v, want MissingPropertyError", err)
	}
	if mpe.Property != "text2" {
		t.Errorf("missing property = %q, want text2", mpe.Property)
	}
}

func TestValidate(t *testing.T) {
	s := MustConfigure(itemsDefinition())
	tests := []struct {
		name    string
		props   types.Properties
		wantErr error
	}{
		{"all mapped", types.Properties{"id": "a", "data": 1.5, "at": time.Now()}, nil},
		{"nil value allowed", types.Properties{"data": nil}, nil},
		{"unmapped", types.Properties{"id": "a", "color": "red"}, types.ErrUnknownProperty},
		{"wrong type", types.Properties{"data": "lots"}, types.ErrTypeMismatch},
		{"bad date", types.Properties{"at": "yesterday"}, types.ErrTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(tt.props)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeProperties(t *testing.T) {
	s := MustConfigure(itemsDefinition())
	got, err := s.DecodeProperties(map[string]any{
		"id":   "abc",
		"data": 3.0,
		"at":   "2024-05-06T07:08:09.010Z",
	})
	if err != nil {
		t.Fatalf("DecodeProperties: %v", err)
	}
	at, ok := got["at"].(time.Time)
	if !ok {
		t.Fatalf("at decoded to %T, want time.Time", got["at"])
	}
	if !at.Equal(time.Date(2024, 5, 6, 7, 8, 9, 10e6, time.UTC)) {
		t.Errorf("at = %v", at)
	}
	if got["data"] != 3.0 || got["id"] != "abc" {
		t.Errorf("DecodeProperties = %v", got)
	}

	if _, err := s.DecodeProperties(map[string]any{"ghost": 1}); !errors.Is(err, types.ErrUnknownProperty) {
		t.Errorf("unmapped property error = %v", err)
	}
}

func TestDecodedPropertiesRenderSameKeys(t *testing.T) {
	def := itemsDefinition()
	def.RowKey = keys.Entries(keys.Property{Name: "at"}, keys.Hash("data"))
	s := MustConfigure(def)

	at := time.Date(2024, 5, 6, 7, 8, 9, 10e6, time.UTC)
	_, want, err := s.Keys(types.Properties{"id": "a", "at": at, "data": 2})
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	decoded, err := s.DecodeProperties(map[string]any{"id": "a", "at": at.Format(time.RFC3339Nano), "data": 2.0})
	if err != nil {
		t.Fatalf("DecodeProperties: %v", err)
	}
	_, got, err := s.Keys(decoded)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if got != want {
		t.Errorf("row key after decode = %q, want %q", got, want)
	}
}

func TestRegistry(t *testing.T) {
	items := MustConfigure(itemsDefinition())
	other := itemsDefinition()
	other.Name = "archive"
	archive := MustConfigure(other)

	r, err := NewRegistry(items, archive)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if names := r.Names(); len(names) != 2 || names[0] != "archive" || names[1] != "items" {
		t.Errorf("Names() = %v", names)
	}
	if err := r.Register(items); !errors.Is(err, types.ErrDuplicateName) {
		t.Errorf("duplicate Register error = %v", err)
	}
	if _, err := r.Get("missing"); !errors.Is(err, types.ErrSchemaNotFound) {
		t.Errorf("Get(missing) error = %v", err)
	}
	ts, ok := r.Schema("items")
	if !ok || ts.Name() != "items" {
		t.Errorf("Schema(items) = %v, %v", ts, ok)
	}
	if _, ok := r.Schema("missing"); ok {
		t.Error("Schema(missing) reported ok")
	}
	if _, err := NewRegistry(items, items); !errors.Is(err, types.ErrDuplicateName) {
		t.Errorf("NewRegistry with duplicates error = %v", err)
	}
}

func TestSchemaConcurrentKeys(t *testing.T) {
	s := MustConfigure(itemsDefinition())
	props := types.Properties{"id": "abc", "text1": "x", "text2": "y"}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pk, rk, err := s.Keys(props)
			if err != nil || pk != "~QMZhNqxiRrGWQbF~NL8Y" || rk != "x~y" {
				t.Errorf("Keys = %q, %q, %v", pk, rk, err)
			}
		}()
	}
	wg.Wait()
}

func TestParseProperties(t *testing.T) {
	s := MustConfigure(itemsDefinition())
	got, err := s.ParseProperties(map[string]string{"id": "007", "data": "7", "at": "2024-05-06T07:08:09Z"})
	if err != nil {
		t.Fatalf("ParseProperties: %v", err)
	}
	if got["id"] != "007" {
		t.Errorf("id = %#v, want string kept as text", got["id"])
	}
	if got["data"] != 7.0 {
		t.Errorf("data = %#v, want 7.0", got["data"])
	}
	if _, ok := got["at"].(time.Time); !ok {
		t.Errorf("at = %T, want time.Time", got["at"])
	}

	if _, err := s.ParseProperties(map[string]string{"data": "seven"}); !errors.Is(err, types.ErrTypeMismatch) {
		t.Errorf("bad number error = %v", err)
	}
	if _, err := s.ParseProperties(map[string]string{"nope": "x"}); !errors.Is(err, types.ErrUnknownProperty) {
		t.Errorf("unmapped error = %v", err)
	}
}

func TestPartitionAndRowCovers(t *testing.T) {
	s := MustConfigure(itemsDefinition())
	if got := s.PartitionCovers(); len(got) != 1 || got[0] != "id" {
		t.Errorf("PartitionCovers() = %v", got)
	}
	if got := s.RowCovers(); len(got) != 2 || got[0] != "text1" || got[1] != "text2" {
		t.Errorf("RowCovers() = %v", got)
	}
}
