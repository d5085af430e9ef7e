package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hpp/internal/testutil"
)

const testManifest = `builds:
  - name: home
    start: src/index.html
    output: dist/index.html
    vars_files: [site.yaml]
    vars:
      page: home
  - name: about
    start: src/about.html
    output: dist/about.html
    vars:
      page: about
`

func makeTree(t *testing.T) string {
	t.Helper()
	return testutil.WriteTree(t, map[string]string{
		"hpp.yaml":       testManifest,
		"site.yaml":      "title: Site\npage: ignored\n",
		"src/index.html": "<<hpp_pyvar title>>/<<hpp_pyvar page>>",
		"src/about.html": "about/<<hpp_pyvar page>>",
	})
}

func TestMake_RunsAllBuilds(t *testing.T) {
	root := makeTree(t)

	stdout, _, err := execute(t, NewMakeCommand(&RootOptions{Format: "text"}), filepath.Join(root, "hpp.yaml"))
	require.NoError(t, err)

	assert.Contains(t, stdout, "✓ home: wrote")
	assert.Contains(t, stdout, "✓ about: wrote")
	assert.Equal(t, "Site/home", testutil.ReadFile(t, filepath.Join(root, "dist", "index.html")))
	assert.Equal(t, "about/about", testutil.ReadFile(t, filepath.Join(root, "dist", "about.html")))
}

func TestMake_Only(t *testing.T) {
	root := makeTree(t)

	_, _, err := execute(t, NewMakeCommand(&RootOptions{Format: "text"}),
		filepath.Join(root, "hpp.yaml"), "--only", "about")
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(root, "dist", "index.html"))
	assert.FileExists(t, filepath.Join(root, "dist", "about.html"))
}

func TestMake_OnlyUnknownBuild(t *testing.T) {
	root := makeTree(t)

	stdout, _, err := execute(t, NewMakeCommand(&RootOptions{Format: "text"}),
		filepath.Join(root, "hpp.yaml"), "--only", "contact")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [MANIFEST_ERROR]")
	assert.Contains(t, stdout, `no build named "contact"`)
}

func TestMake_SetOverridesManifest(t *testing.T) {
	root := makeTree(t)

	_, _, err := execute(t, NewMakeCommand(&RootOptions{Format: "text"}),
		filepath.Join(root, "hpp.yaml"), "--set", "page=override")
	require.NoError(t, err)

	assert.Equal(t, "Site/override", testutil.ReadFile(t, filepath.Join(root, "dist", "index.html")))
	assert.Equal(t, "about/override", testutil.ReadFile(t, filepath.Join(root, "dist", "about.html")))
}

func TestMake_StopsAtFirstFailure(t *testing.T) {
	root := makeTree(t)
	testutil.WriteFiles(t, root, map[string]string{"dist/index.html": "existing"})

	stdout, _, err := execute(t, NewMakeCommand(&RootOptions{Format: "json"}), filepath.Join(root, "hpp.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, stdout)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "OUTPUT_EXISTS", resp.Error.Code)
	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "home", details["build"])

	assert.Equal(t, "existing", testutil.ReadFile(t, filepath.Join(root, "dist", "index.html")))
	assert.NoFileExists(t, filepath.Join(root, "dist", "about.html"))
}

func TestMake_Force(t *testing.T) {
	root := makeTree(t)
	testutil.WriteFiles(t, root, map[string]string{"dist/index.html": "existing"})

	_, _, err := execute(t, NewMakeCommand(&RootOptions{Format: "text"}), filepath.Join(root, "hpp.yaml"), "--force")
	require.NoError(t, err)
	assert.Equal(t, "Site/home", testutil.ReadFile(t, filepath.Join(root, "dist", "index.html")))
}

func TestMake_JSON(t *testing.T) {
	root := makeTree(t)

	stdout, _, err := execute(t, NewMakeCommand(&RootOptions{Format: "json"}), filepath.Join(root, "hpp.yaml"))
	require.NoError(t, err)

	resp := decodeResponse(t, stdout)
	assert.Equal(t, "ok", resp.Status)

	builds, ok := resp.Data.([]any)
	require.True(t, ok)
	require.Len(t, builds, 2)
	first, ok := builds[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "home", first["name"])
	assert.EqualValues(t, len("Site/home"), first["bytes"])
}

func TestMake_MissingManifest(t *testing.T) {
	stdout, _, err := execute(t, NewMakeCommand(&RootOptions{Format: "text"}),
		filepath.Join(t.TempDir(), "hpp.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [MANIFEST_ERROR]")
}
