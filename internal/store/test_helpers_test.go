package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/hpp/internal/models"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// pragma reads a pragma value through the store's connection.
func pragma(t *testing.T, s *Store, name string) string {
	t.Helper()
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		t.Fatalf("PRAGMA %s: %v", name, err)
	}
	return value
}

// createTestRun creates a successful run with the given loads.
func createTestRun(id string, loads ...models.LoadRecord) Run {
	return Run{
		ID:           id,
		StartFile:    "/src/index.html",
		OutputFile:   "/dist/report.html",
		Status:       StatusOK,
		OutputBytes:  42,
		OutputDigest: "digest-" + id,
		Loads:        loads,
	}
}

func createTestLoad(path string, depth int) models.LoadRecord {
	return models.LoadRecord{
		Path:   path,
		Mode:   models.LoadText,
		Depth:  depth,
		Bytes:  10,
		Digest: "sha-" + filepath.Base(path),
	}
}
