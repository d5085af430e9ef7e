package filelock

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestLockUnlock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "out.html.lock")

	lock := NewFileLock(lockPath)
	if err := lock.Lock(); err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Failed to release lock: %v", err)
	}
}

func TestTryLockContended(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "out.html.lock")

	holder := NewFileLock(lockPath)
	if err := holder.Lock(); err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	defer holder.Unlock()

	other := NewFileLock(lockPath)
	acquired, err := other.TryLock()
	if err != nil {
		t.Fatalf("TryLock returned error: %v", err)
	}
	if acquired {
		t.Error("TryLock should fail while another handle holds the lock")
	}
}

func TestAtomicWriteCreates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.html")

	if err := AtomicWrite(path, []byte("<html></html>"), false); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(got) != "<html></html>" {
		t.Errorf("Expected written content, got %q", got)
	}

	assertNoTempFiles(t, filepath.Dir(path))
}

func TestAtomicWriteNoClobber(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.html")
	if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := AtomicWrite(path, []byte("replacement"), false)
	if !errors.Is(err, ErrExists) {
		t.Fatalf("Expected ErrExists, got %v", err)
	}
	if !errors.Is(err, fs.ErrExist) {
		t.Error("ErrExists should wrap fs.ErrExist")
	}

	got, _ := os.ReadFile(path)
	if string(got) != "original" {
		t.Errorf("Existing file must be untouched, got %q", got)
	}
	assertNoTempFiles(t, filepath.Dir(path))
}

func TestAtomicWriteOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.html")
	if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := AtomicWrite(path, []byte("replacement"), true); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "replacement" {
		t.Errorf("Expected replacement, got %q", got)
	}
	assertNoTempFiles(t, filepath.Dir(path))
}

func TestLockAndWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.html")

	if err := LockAndWrite(path, []byte("first"), false); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := LockAndWrite(path, []byte("second"), false); !errors.Is(err, ErrExists) {
		t.Fatalf("Expected ErrExists on second write, got %v", err)
	}
	if err := LockAndWrite(path, []byte("third"), true); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "third" {
		t.Errorf("Expected third, got %q", got)
	}
	if !Exists(LockPath(path)) {
		t.Error("lock file should stay in place after the write")
	}
}

func TestLockPath(t *testing.T) {
	got := LockPath(filepath.Join("dist", "index.html"))
	want := filepath.Join("dist", ".hpp-lock-index.html")
	if got != want {
		t.Errorf("LockPath() = %q, want %q", got, want)
	}
}

func TestLockAndWrite_LeavesNeighbouringFilesAlone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.html")
	userFile := path + ".lock"
	if err := os.WriteFile(userFile, []byte("mine"), 0o644); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := LockAndWrite(path, []byte("doc"), true); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}

	got, err := os.ReadFile(userFile)
	if err != nil {
		t.Fatalf("user file was removed: %v", err)
	}
	if string(got) != "mine" {
		t.Errorf("user file changed to %q", got)
	}
}

func TestLockAndWrite_KeepsExistingLockFileContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.html")
	if err := os.WriteFile(LockPath(path), []byte("held"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := LockAndWrite(path, []byte("doc"), false); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, _ := os.ReadFile(LockPath(path))
	if string(got) != "held" {
		t.Errorf("lock file content changed to %q", got)
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	if !Exists(dir) {
		t.Error("directory should exist")
	}
	if Exists(filepath.Join(dir, "nope")) {
		t.Error("missing path should not exist")
	}
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".hpp-tmp-*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("temporary files left behind: %v", matches)
	}
}
