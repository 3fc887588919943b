package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned when another npcd holds the instance lock.
var ErrAlreadyRunning = errors.New("npcd is already running")

// LockPath returns the instance lock path, under XDG_RUNTIME_DIR when set.
func LockPath() string {
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "npc", "npcd.lock")
}

// InstanceLock guarantees a single npcd per user session. Two overlays
// would otherwise draw on top of each other.
type InstanceLock struct {
	path string
	lock *flock.Flock
}

// NewInstanceLock creates a lock at path without acquiring it.
func NewInstanceLock(path string) *InstanceLock {
	return &InstanceLock{path: path, lock: flock.New(path)}
}

// Acquire takes the lock or returns ErrAlreadyRunning.
func (l *InstanceLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}
	return nil
}

// Release drops the lock.
func (l *InstanceLock) Release() error {
	return l.lock.Unlock()
}

// Path returns the lock file path.
func (l *InstanceLock) Path() string {
	return l.path
}
