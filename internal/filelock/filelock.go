// Package filelock provides the locked, atomic terminal write for assembled
// documents.
//
// Readers never observe a partially written output file: content goes to a
// temporary file in the target directory and is moved into place in one
// step. When overwriting is not allowed the move is a hard link, which fails
// if the target appeared in the meantime, so an existing file is never
// replaced even if another process created it after the last check.
//
// Concurrent writers of one output serialize on a hidden lock file next to
// it (see LockPath), which persists between runs.
package filelock

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrExists is returned when the target exists and overwriting is not allowed.
var ErrExists = fmt.Errorf("output file already exists: %w", fs.ErrExist)

// FileLock wraps a flock file lock for coordinating writers of one output.
type FileLock struct {
	flock *flock.Flock
	path  string
}

// NewFileLock creates a new file lock for the given lock file path.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		flock: flock.New(path),
		path:  path,
	}
}

// Lock acquires an exclusive lock, blocking until it is available.
func (fl *FileLock) Lock() error {
	if err := fl.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", fl.path, err)
	}
	return nil
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired.
func (fl *FileLock) TryLock() (bool, error) {
	acquired, err := fl.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock on %s: %w", fl.path, err)
	}
	return acquired, nil
}

// Unlock releases the lock.
func (fl *FileLock) Unlock() error {
	if err := fl.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", fl.path, err)
	}
	return nil
}

// Path returns the lock file path.
func (fl *FileLock) Path() string {
	return fl.path
}

// AtomicWrite writes data to path via a temporary file in the same directory.
//
// With overwrite, the temporary file is renamed over path. Without it, the
// temporary file is hard-linked to path, which fails with ErrExists if path
// exists. On any failure path is left untouched and the temporary file is
// removed.
func AtomicWrite(path string, data []byte, overwrite bool) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, ".hpp-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	defer os.Remove(tempPath)

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if overwrite {
		if err := os.Rename(tempPath, path); err != nil {
			return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
		}
		return nil
	}

	// The deferred Remove drops the temporary name; the linked name stays.
	if err := os.Link(tempPath, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrExists
		}
		return fmt.Errorf("failed to link temp file to %s: %w", path, err)
	}
	return nil
}

// LockPath returns the lock file guarding writes to path: a hidden file
// named after path in the same directory.
func LockPath(path string) string {
	return filepath.Join(filepath.Dir(path), ".hpp-lock-"+filepath.Base(path))
}

// LockAndWrite holds the lock on LockPath(path) while it checks the
// overwrite policy and performs AtomicWrite. The lock file is never removed,
// so every writer locks the same inode.
func LockAndWrite(path string, data []byte, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}

	lock := NewFileLock(LockPath(path))
	if err := lock.Lock(); err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	if !overwrite && Exists(path) {
		return ErrExists
	}
	return AtomicWrite(path, data, overwrite)
}

// Exists reports whether anything exists at path.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
