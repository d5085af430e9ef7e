package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteTree creates files under a fresh temporary directory and returns it.
//
// Keys are slash-separated paths relative to the root; parent directories are
// created as needed. Values are written verbatim.
//
//	root := testutil.WriteTree(t, map[string]string{
//	    "index.html":   "<<hpp_insert parts/body.html>>",
//	    "parts/body.html": "<p>hi</p>",
//	})
func WriteTree(t testing.TB, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	WriteFiles(t, root, files)
	return root
}

// WriteFiles writes files under an existing root.
func WriteFiles(t testing.TB, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("creating directory for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", rel, err)
		}
	}
}

// ReadFile returns the contents of path, failing the test on error.
func ReadFile(t testing.TB, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}
