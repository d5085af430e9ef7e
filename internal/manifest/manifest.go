// Package manifest loads hpp.yaml build manifests.
//
// A manifest describes several assemblies that are run together:
//
//	builds:
//	  - name: site
//	    start: src/index.html
//	    output: dist/index.html
//	    overwrite: true
//	    vars_files: [vars/site.yaml]
//	    vars:
//	      version: "1.2.0"
//
// Paths are relative to the manifest file's directory. Inline vars override
// bindings from vars_files.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the manifest name looked up when none is given.
const DefaultFile = "hpp.yaml"

// Manifest is a parsed build manifest.
type Manifest struct {
	// Builds run in declaration order.
	Builds []Build `yaml:"builds"`

	// Path is the absolute manifest path. Set by Load.
	Path string `yaml:"-"`
}

// Build describes one assembly.
type Build struct {
	// Name identifies the build in output and must be unique.
	Name string `yaml:"name"`

	// Start is the start file.
	Start string `yaml:"start"`

	// Output is the file the expanded document is written to.
	Output string `yaml:"output"`

	// Overwrite allows replacing an existing output.
	Overwrite bool `yaml:"overwrite,omitempty"`

	// VarsFiles are loaded in order; later files override earlier ones.
	VarsFiles []string `yaml:"vars_files,omitempty"`

	// Vars are inline bindings applied after VarsFiles.
	Vars map[string]any `yaml:"vars,omitempty"`
}

// Load reads and validates a manifest. Unknown fields are rejected. Start,
// Output and VarsFiles are resolved against the manifest directory.
func Load(path string) (*Manifest, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve manifest path: %w", err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var m Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("invalid manifest %s: no builds defined", path)
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	m.Path = abs

	base := filepath.Dir(abs)
	for i := range m.Builds {
		b := &m.Builds[i]
		b.Start = resolve(base, b.Start)
		b.Output = resolve(base, b.Output)
		for j, vf := range b.VarsFiles {
			b.VarsFiles[j] = resolve(base, vf)
		}
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return &m, nil
}

// Validate checks required fields and name uniqueness.
func (m *Manifest) Validate() error {
	if len(m.Builds) == 0 {
		return fmt.Errorf("no builds defined")
	}

	seen := make(map[string]bool, len(m.Builds))
	for i, b := range m.Builds {
		if b.Name == "" {
			return fmt.Errorf("builds[%d]: name is required", i)
		}
		if seen[b.Name] {
			return fmt.Errorf("builds[%d]: duplicate name %q", i, b.Name)
		}
		seen[b.Name] = true

		if b.Start == "" {
			return fmt.Errorf("builds[%d] (%s): start is required", i, b.Name)
		}
		if b.Output == "" {
			return fmt.Errorf("builds[%d] (%s): output is required", i, b.Name)
		}
		if b.Start == b.Output {
			return fmt.Errorf("builds[%d] (%s): output must differ from start", i, b.Name)
		}
	}
	return nil
}

// Find returns the build with the given name.
func (m *Manifest) Find(name string) (*Build, bool) {
	for i := range m.Builds {
		if m.Builds[i].Name == name {
			return &m.Builds[i], true
		}
	}
	return nil, false
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
