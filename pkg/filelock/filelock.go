// Package filelock provides an advisory lock so two filesorter processes do
// not organize or undo against the same undo log at once.
package filelock

import (
	"errors"
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// ErrLocked is returned when another process holds the lock.
var ErrLocked = errors.New("another filesorter run holds the lock")

// Lock represents an acquired advisory file lock.
type Lock struct {
	fl *flock.Flock
}

// Acquire takes an exclusive lock on path without blocking. If another
// process already holds the lock, Acquire returns ErrLocked immediately.
func Acquire(path string) (*Lock, error) {
	fl := flock.New(path)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("acquire lock %s: %w", path, ErrLocked)
	}

	return &Lock{fl: fl}, nil
}

// Close releases the lock and removes the lock file.
// It is safe to call Close on a nil Lock (no-op).
func (l *Lock) Close() error {
	if l == nil || l.fl == nil {
		return nil
	}

	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("unlock: %w", err)
	}

	if err := os.Remove(l.fl.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove lock file: %w", err)
	}

	return nil
}
