package manifest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hpp/internal/testutil"
)

func TestLoad_Valid(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"hpp.yaml": `
builds:
  - name: site
    start: src/index.html
    output: dist/index.html
    overwrite: true
    vars_files:
      - vars/site.yaml
      - /etc/hpp/shared.json
    vars:
      version: "1.2.0"
      debug: false
  - name: report
    start: src/report.html
    output: dist/report.html
`,
	})

	m, err := Load(filepath.Join(root, "hpp.yaml"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "hpp.yaml"), m.Path)
	require.Len(t, m.Builds, 2)

	site := m.Builds[0]
	assert.Equal(t, "site", site.Name)
	assert.Equal(t, filepath.Join(root, "src", "index.html"), site.Start)
	assert.Equal(t, filepath.Join(root, "dist", "index.html"), site.Output)
	assert.True(t, site.Overwrite)
	assert.Equal(t, []string{filepath.Join(root, "vars", "site.yaml"), "/etc/hpp/shared.json"}, site.VarsFiles)
	assert.Equal(t, map[string]any{"version": "1.2.0", "debug": false}, site.Vars)

	report, ok := m.Find("report")
	require.True(t, ok)
	assert.False(t, report.Overwrite)
	assert.Empty(t, report.VarsFiles)

	_, ok = m.Find("nope")
	assert.False(t, ok)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "hpp.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read manifest file")
}

func TestLoad_UnknownField(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"hpp.yaml": `
builds:
  - name: site
    start: a.html
    output: b.html
    overwite: true
`,
	})

	_, err := Load(filepath.Join(root, "hpp.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overwite")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"empty file", "", "no builds defined"},
		{"no builds", "builds: []\n", "no builds defined"},
		{"missing name", "builds:\n  - start: a.html\n    output: b.html\n", "name is required"},
		{"missing start", "builds:\n  - name: x\n    output: b.html\n", "start is required"},
		{"missing output", "builds:\n  - name: x\n    start: a.html\n", "output is required"},
		{"same start and output", "builds:\n  - name: x\n    start: a.html\n    output: ./a.html\n", "output must differ"},
		{
			"duplicate name",
			"builds:\n  - {name: x, start: a.html, output: b.html}\n  - {name: x, start: c.html, output: d.html}\n",
			"duplicate name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := testutil.WriteTree(t, map[string]string{"hpp.yaml": tt.content})

			_, err := Load(filepath.Join(root, "hpp.yaml"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
