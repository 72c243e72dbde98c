package entity

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mesh-intelligence/entitykeys/pkg/types"
)

const itemsYAML = `
entities:
  - name: items
    version: 3
    properties:
      id: string
      data: number
      text1: string
      text2: string
    partitionKey:
      entries:
        - constant: my-constant
        - property: id
    rowKey:
      composite: [text1, text2]
  - name: blobs
    properties:
      owner: string
      body: json
    partitionKey:
      string: owner
    rowKey:
      entries:
        - hash: [body]
`

func TestParse(t *testing.T) {
	reg, err := Parse([]byte(itemsYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := strings.Join(reg.Names(), ","); got != "blobs,items" {
		t.Fatalf("Names() = %s", got)
	}

	items, err := reg.Get("items")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if items.Version() != 3 {
		t.Errorf("Version() = %d, want 3", items.Version())
	}
	if got := strings.Join(items.Mapping().Names(), ","); got != "id,data,text1,text2" {
		t.Errorf("mapping order = %s", got)
	}
	pk, rk, err := items.Keys(types.Properties{"id": "abc", "text1": "x", "text2": "y"})
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if pk != "~QMZhNqxiRrGWQbF~NL8Y" || rk != "x~y" {
		t.Errorf("Keys = %q, %q", pk, rk)
	}

	blobs, err := reg.Get("blobs")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	_, rk1, err := blobs.Keys(types.Properties{"owner": "o", "body": map[string]any{"b": 1, "a": 2}})
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	_, rk2, err := blobs.Keys(types.Properties{"owner": "o", "body": map[string]any{"a": 2, "b": 1}})
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if rk1 != rk2 {
		t.Errorf("json hash depends on map order: %q != %q", rk1, rk2)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, doc := range []string{"", "entities: []\n"} {
		reg, err := Parse([]byte(doc))
		if err != nil {
			t.Fatalf("Parse(%q): %v", doc, err)
		}
		if len(reg.Names()) != 0 {
			t.Errorf("Parse(%q) registered %v", doc, reg.Names())
		}
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
		wantMsg string
	}{
		{
			name:    "unknown field",
			doc:     "entities:\n  - name: a\n    colour: red\n",
			wantErr: ErrMalformedFile,
			wantMsg: "colour",
		},
		{
			name: "unknown type",
			doc: `entities:
  - name: a
    properties: {id: integer}
    partitionKey: {string: id}
    rowKey: {constant: r}
`,
			wantErr: types.ErrInvalidValueType,
		},
		{
			name: "ambiguous key",
			doc: `entities:
  - name: a
    properties: {id: string}
    partitionKey: {string: id, constant: c}
    rowKey: {constant: r}
`,
			wantErr: types.ErrInvalidEntry,
		},
		{
			name: "key with nothing set",
			doc: `entities:
  - name: a
    properties: {id: string}
    partitionKey: {string: id}
`,
			wantErr: types.ErrInvalidEntry,
		},
		{
			name: "ambiguous entry",
			doc: `entities:
  - name: a
    properties: {id: string}
    partitionKey:
      entries:
        - {property: id, hash: [id]}
    rowKey: {constant: r}
`,
			wantErr: types.ErrInvalidEntry,
		},
		{
			name: "not comparable",
			doc: `entities:
  - name: a
    properties: {body: text}
    partitionKey:
      entries: [{property: body}]
    rowKey: {constant: r}
`,
			wantErr: types.ErrNotComparable,
		},
		{
			name: "duplicate entity",
			doc: `entities:
  - {name: a, partitionKey: {constant: p}, rowKey: {constant: r}}
  - {name: a, partitionKey: {constant: p}, rowKey: {constant: r}}
`,
			wantErr: types.ErrDuplicateName,
		},
		{
			name:    "properties not a mapping",
			doc:     "entities:\n  - name: a\n    properties: [id]\n",
			wantErr: ErrMalformedFile,
			wantMsg: "mapping",
		},
		{
			name: "duplicate property",
			doc: `entities:
  - name: a
    properties:
      id: string
      id: number
    partitionKey: {string: id}
    rowKey: {constant: r}
`,
			wantMsg: "id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := Parse([]byte(tt.doc))
			if err == nil {
				t.Fatalf("Parse succeeded with %v", reg.Names())
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Parse error = %v, want mention of %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	if err := os.WriteFile(path, []byte(itemsYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	reg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if _, err := reg.Get("items"); err != nil {
		t.Errorf("Get(items): %v", err)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadFile(missing) error = %v", err)
	}
}
