// Package cache provides content-addressed locations and cross-process
// locking for the shared download cache.
package cache

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/gofrs/flock"
)

// Key returns a stable 16 hex character key for an upstream identity such
// as a URL or repository address.
func Key(identity string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(identity))
}

// Dir returns the cache directory for identity under the per-type
// subdirectory kind.
func Dir(cacheDir, kind, identity string) string {
	return filepath.Join(cacheDir, kind, Key(identity))
}

// Exists reports whether something exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Lock is an exclusive lock over a cache directory shared by processes.
type Lock struct {
	flock *flock.Flock
}

// NewLock returns a lock backed by <dir>/.lock.
func NewLock(dir string) *Lock {
	return &Lock{flock: flock.New(filepath.Join(dir, ".lock"))}
}

// Lock blocks until the lock is acquired, creating the directory if needed.
func (l *Lock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.flock.Path()), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("failed to lock cache: %w", err)
	}
	return nil
}

// Unlock releases the lock. It is safe to call on an unlocked Lock.
func (l *Lock) Unlock() error {
	if !l.flock.Locked() {
		return nil
	}
	return l.flock.Unlock()
}

// WriteFile writes data to path through a temporary sibling file and a
// rename, so readers never observe a partial cache entry.
func WriteFile(path string, data []byte) error {
	return WriteFrom(path, bytes.NewReader(data))
}

// WriteFrom is WriteFile for a stream. Nothing is left at path if r fails.
func WriteFrom(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
