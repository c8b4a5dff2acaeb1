package state

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Lock is an exclusive advisory lock held for the duration of one invocation.
// It serializes overlapping runs so two watchdog processes cannot race on the
// read-modify-write of the state file.
type Lock struct {
	file *os.File
}

// ErrLockHeld indicates another invocation currently holds the lock
var ErrLockHeld = fmt.Errorf("another watchdog invocation is running")

// Acquire takes a non-blocking exclusive flock on the given path.
// Returns ErrLockHeld when a concurrent invocation owns it.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, ErrLockHeld
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	return &Lock{file: f}, nil
}

// Release drops the lock. Safe to call on all exit paths.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil
	if err != nil {
		return fmt.Errorf("failed to unlock: %w", err)
	}
	return closeErr
}
