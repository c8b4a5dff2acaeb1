// Package state persists the watchdog's bookkeeping between invocations.
// Each run of the watchdog is a fresh short-lived process, so the
// consecutive-failure count, the backoff deadline and the degraded-mode
// counter live in a small JSON file that survives process exit and reboot.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CurrentVersion is the schema version of the state file
const CurrentVersion = 1

// WatchdogState is the only persisted entity
type WatchdogState struct {
	Version int `json:"version"`

	// ConsecutiveFailures counts consecutive invocations where the health
	// check failed and a restart was attempted. Reset to 0 on any healthy
	// check.
	ConsecutiveFailures int `json:"consecutive_failures"`

	// NextEligibleRestartAttempt is the earliest time another restart may
	// occur. Zero when no backoff window is active.
	NextEligibleRestartAttempt time.Time `json:"next_eligible_restart_attempt,omitempty"`

	// DegradedInvocationCounter is incremented on every invocation while
	// degraded, driving the 1-in-N restart throttle.
	DegradedInvocationCounter int `json:"degraded_invocation_counter"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Fresh returns the initial state used on first-ever invocation and as the
// conservative fallback when the persisted state is unreadable.
func Fresh() WatchdogState {
	return WatchdogState{Version: CurrentVersion}
}

// BackoffActive reports whether a backoff window is in effect at the given time
func (s WatchdogState) BackoffActive(now time.Time) bool {
	return !s.NextEligibleRestartAttempt.IsZero() && now.Before(s.NextEligibleRestartAttempt)
}

// Store persists WatchdogState
type Store interface {
	Load() (WatchdogState, error)
	Save(s WatchdogState) error
}

// FileStore keeps state in a JSON file with atomic replace-on-write
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given file path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// ErrNoState indicates that no state has been persisted yet
var ErrNoState = errors.New("no persisted state")

// Load reads the state file. A missing file returns Fresh() with ErrNoState
// so callers can tell first-run from a real read; a corrupt or unreadable
// file returns Fresh() with the underlying error so the invocation can
// proceed on the conservative fresh-state assumption.
func (fs *FileStore) Load() (WatchdogState, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Fresh(), ErrNoState
		}
		return Fresh(), fmt.Errorf("failed to read state file: %w", err)
	}

	var s WatchdogState
	if err := json.Unmarshal(data, &s); err != nil {
		return Fresh(), fmt.Errorf("failed to parse state file: %w", err)
	}

	if s.ConsecutiveFailures < 0 || s.DegradedInvocationCounter < 0 {
		return Fresh(), fmt.Errorf("state file holds negative counters")
	}

	s.Version = CurrentVersion
	return s, nil
}

// Save writes the state atomically: write to a temp file, fsync, rename.
// A half-written state file would otherwise cost failure-count continuity
// across a power loss, which single-board devices see often.
func (fs *FileStore) Save(s WatchdogState) error {
	s.Version = CurrentVersion
	s.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(fs.path), 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmpPath := fs.path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync state: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}

	if err := os.Rename(tmpPath, fs.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}
