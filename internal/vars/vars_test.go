package vars

import (
	"encoding/json"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hpp/internal/testutil"
)

// wantTable is the table every format fixture below decodes to.
var wantTable = map[string]any{
	"title":   "Demo <beta>",
	"count":   int64(3),
	"ratio":   0.5,
	"enabled": true,
	"tags":    []any{"a", "b"},
	"nested":  map[string]any{"depth": int64(2)},
}

func TestLoadFile_Formats(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"vars.cue": `
title:   "Demo <beta>"
count:   3
ratio:   0.5
enabled: true
tags: ["a", "b"]
nested: depth: 2
`,
		"vars.yaml": `
title: "Demo <beta>"
count: 3
ratio: 0.5
enabled: true
tags: [a, b]
nested:
  depth: 2
`,
		"vars.json": `{
  "title": "Demo <beta>",
  "count": 3,
  "ratio": 0.5,
  "enabled": true,
  "tags": ["a", "b"],
  "nested": {"depth": 2}
}`,
		"vars.hcl": `
title   = "Demo <beta>"
count   = 3
ratio   = 0.5
enabled = true
tags    = ["a", "b"]
nested  = { depth = 2 }
`,
	})

	for _, name := range []string{"vars.cue", "vars.yaml", "vars.json", "vars.hcl"} {
		t.Run(name, func(t *testing.T) {
			table, err := LoadFile(filepath.Join(root, name))
			require.NoError(t, err)
			assert.Equal(t, wantTable, table)
		})
	}
}

func TestLoadFile_YMLExtension(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{"v.YML": "a: 1\n"})

	table, err := LoadFile(filepath.Join(root, "v.YML"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": int64(1)}, table)
}

func TestLoadFile_EmptyYAML(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{"empty.yaml": ""})

	table, err := LoadFile(filepath.Join(root, "empty.yaml"))
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestLoadFile_JSONLargeNumbers(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"v.json": `{"id": 9007199254740993, "big": 1e300}`,
	})

	table, err := LoadFile(filepath.Join(root, "v.json"))
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), table["id"])
	assert.Equal(t, 1e300, table["big"])
}

func TestLoadFile_Errors(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"v.toml":        "a = 1",
		"bad.json":      `{"a": `,
		"trailing.json": `{"a": 1} {"b": 2}`,
		"list.yaml":     "- a\n- b\n",
		"bad.cue":       "a: 1\na: 2\n",
		"open.cue":      "a: int\n",
		"block.hcl":     "site {\n  title = \"x\"\n}\n",
		"ref.hcl":       "a = b\n",
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(root, "v.toml"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	for _, name := range []string{"bad.json", "trailing.json", "list.yaml", "bad.cue", "open.cue", "block.hcl", "ref.hcl", "missing.yaml"} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFile(filepath.Join(root, name))
			require.Error(t, err)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestLoadFiles_LaterOverrides(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"base.yaml":  "title: base\nkeep: true\n",
		"local.json": `{"title": "local"}`,
	})

	table, err := LoadFiles(filepath.Join(root, "base.yaml"), filepath.Join(root, "local.json"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "local", "keep": true}, table)
}

func TestLoadFiles_None(t *testing.T) {
	table, err := LoadFiles()
	require.NoError(t, err)
	assert.NotNil(t, table)
	assert.Empty(t, table)
}

func TestParseAssignments(t *testing.T) {
	table, err := ParseAssignments([]string{
		"name=hpp",
		"version=1.10",
		"zip=01234",
		"n=3",
		"debug=true",
		"tags=[a, b]",
		"nothing=null",
		"empty=",
		"text=hello world",
		"eq=a=b",
		"name=override",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"name":    "override",
		"version": "1.10",
		"zip":     "01234",
		"n":       "3",
		"debug":   "true",
		"tags":    "[a, b]",
		"nothing": "null",
		"empty":   "",
		"text":    "hello world",
		"eq":      "a=b",
	}, table)
}

func TestParseAssignments_Invalid(t *testing.T) {
	for _, pair := range []string{"novalue", "=x", "two words=x"} {
		t.Run(pair, func(t *testing.T) {
			_, err := ParseAssignments([]string{pair})
			require.Error(t, err)
		})
	}
}

func TestParseJSONAssignments(t *testing.T) {
	table, err := ParseJSONAssignments([]string{
		"n=3",
		"ratio=0.25",
		"debug=true",
		`tags=["a","b"]`,
		`cfg={"depth":2}`,
		"nothing=null",
		`version="1.10"`,
		"big=12345678901234567890",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"n":       int64(3),
		"ratio":   0.25,
		"debug":   true,
		"tags":    []any{"a", "b"},
		"cfg":     map[string]any{"depth": int64(2)},
		"nothing": nil,
		"version": "1.10",
		"big":     1.2345678901234567e19,
	}, table)
}

func TestParseJSONAssignments_Invalid(t *testing.T) {
	for _, pair := range []string{"novalue", "=1", "empty=", "bare=hello", "zip=01234", "two=1 2", "open=[1"} {
		t.Run(pair, func(t *testing.T) {
			_, err := ParseJSONAssignments([]string{pair})
			require.Error(t, err)
		})
	}
}

func TestMerge(t *testing.T) {
	dst := map[string]any{"a": 1, "b": map[string]any{"x": 1}}
	Merge(dst, map[string]any{"b": map[string]any{"y": 2}, "c": 3})

	assert.Equal(t, map[string]any{
		"a": 1,
		"b": map[string]any{"y": 2},
		"c": 3,
	}, dst)
}

func TestNormalize(t *testing.T) {
	huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"int", 7, int64(7)},
		{"uint64", uint64(7), int64(7)},
		{"float32", float32(0.5), 0.5},
		{"json integer", json.Number("42"), int64(42)},
		{"json float", json.Number("4.5"), 4.5},
		{"big int", big.NewInt(9), int64(9)},
		{"huge big int", huge, 1.2345678901234568e29},
		{"big float whole", big.NewFloat(2), int64(2)},
		{"map any keys", map[any]any{1: "one", "two": 2}, map[string]any{"1": "one", "two": int64(2)}},
		{"nested list", []any{1, []any{json.Number("2")}}, []any{int64(1), []any{int64(2)}}},
		{"string passes", "s", "s"},
		{"nil passes", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeTable(t *testing.T) {
	table, err := Normalize(map[string]any{"n": 1, "m": map[string]any{"f": float32(1.5)}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": int64(1), "m": map[string]any{"f": 1.5}}, table)

	table, err = Normalize(nil)
	require.NoError(t, err)
	assert.NotNil(t, table)
}
