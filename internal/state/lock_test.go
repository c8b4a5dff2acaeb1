package state

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestAcquireAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cnwatch.lock")

	lock, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Errorf("Release failed: %v", err)
	}
}

func TestSecondAcquireBlockedWhileHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cnwatch.lock")

	lock, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer lock.Release()

	if _, err := Acquire(path); !errors.Is(err, ErrLockHeld) {
		t.Errorf("Expected ErrLockHeld for overlapping acquire, got %v", err)
	}
}

func TestReacquireAfterRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cnwatch.lock")

	lock, err := Acquire(path)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	lock2, err := Acquire(path)
	if err != nil {
		t.Fatalf("Expected re-acquire after release to succeed, got %v", err)
	}
	lock2.Release()
}

func TestReleaseNilLockIsSafe(t *testing.T) {
	var lock *Lock
	if err := lock.Release(); err != nil {
		t.Errorf("Release on nil lock should be a no-op, got %v", err)
	}
}
