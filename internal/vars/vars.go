// Package vars builds variable-binding tables for hpp_pyvar directives.
//
// A table is a map from variable name to value. Tables are read from files,
// one format per extension:
//
//	.cue         CUE, evaluated and decoded
//	.yaml, .yml  YAML
//	.json        JSON, integers kept as integers
//	.hcl         HCL attributes, expressions evaluated without functions
//
// Values are normalized to the same Go types regardless of the source:
// string, bool, int64, float64, nil, []any and map[string]any.
package vars

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for a file extension with no decoder.
var ErrUnsupportedFormat = errors.New("unsupported variables file format")

// LoadFile reads a variables file, choosing the decoder by extension.
func LoadFile(path string) (map[string]any, error) {
	var (
		table map[string]any
		err   error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cue":
		table, err = loadCUE(path)
	case ".yaml", ".yml":
		table, err = loadYAML(path)
	case ".json":
		table, err = loadJSON(path)
	case ".hcl":
		table, err = loadHCL(path)
	default:
		return nil, fmt.Errorf("%s: %w %q (expected .cue, .yaml, .yml, .json or .hcl)", path, ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("loading variables from %s: %w", path, err)
	}

	normalized, err := normalizeTable(table)
	if err != nil {
		return nil, fmt.Errorf("loading variables from %s: %w", path, err)
	}
	return normalized, nil
}

// LoadFiles reads each file in order and merges the tables. A name bound by
// a later file replaces the earlier binding.
func LoadFiles(paths ...string) (map[string]any, error) {
	table := make(map[string]any)
	for _, path := range paths {
		next, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		Merge(table, next)
	}
	return table, nil
}

// Merge copies every binding of src into dst, replacing existing names.
// Values are not merged recursively.
func Merge(dst, src map[string]any) {
	for name, val := range src {
		dst[name] = val
	}
}

// ParseAssignments parses "name=value" pairs. Every value is bound as the
// string exactly as given, so "v=1.10" binds "1.10" and "zip=01234" binds
// "01234". Later pairs replace earlier ones.
func ParseAssignments(pairs []string) (map[string]any, error) {
	table := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, raw, err := splitAssignment(pair)
		if err != nil {
			return nil, err
		}
		table[name] = raw
	}
	return table, nil
}

// ParseJSONAssignments parses "name=value" pairs whose value is a JSON
// document, so "n=3" binds an integer, "debug=true" a boolean and
// `tags=["a","b"]` a list. Values are normalized like LoadFile's.
func ParseJSONAssignments(pairs []string) (map[string]any, error) {
	table := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, raw, err := splitAssignment(pair)
		if err != nil {
			return nil, err
		}

		dec := json.NewDecoder(strings.NewReader(raw))
		dec.UseNumber()
		var val any
		if err := dec.Decode(&val); err != nil {
			return nil, fmt.Errorf("invalid assignment %q: %w", pair, err)
		}
		if dec.More() {
			return nil, fmt.Errorf("invalid assignment %q: trailing data after JSON value", pair)
		}

		normalized, err := normalize(val)
		if err != nil {
			return nil, fmt.Errorf("invalid assignment %q: %w", pair, err)
		}
		table[name] = normalized
	}
	return table, nil
}

func splitAssignment(pair string) (string, string, error) {
	name, raw, ok := strings.Cut(pair, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("invalid assignment %q: expected name=value", pair)
	}
	if strings.ContainsAny(name, " \t\r\n") {
		return "", "", fmt.Errorf("invalid assignment %q: name contains whitespace", pair)
	}
	return name, raw, nil
}

// Normalize converts a table decoded elsewhere, such as the inline vars of
// a manifest, to the value types LoadFile produces.
func Normalize(table map[string]any) (map[string]any, error) {
	return normalizeTable(table)
}
