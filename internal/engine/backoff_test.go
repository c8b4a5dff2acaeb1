package engine

import (
	"testing"
	"time"
)

func TestBackoffDelayMonotonic(t *testing.T) {
	policy := BackoffPolicy{Base: 30 * time.Second, Step: 30 * time.Second, Cap: 5 * time.Minute}

	for n := 1; n <= 20; n++ {
		if policy.Delay(n+1) < policy.Delay(n) {
			t.Errorf("Backoff not monotonic: delay(%d)=%v > delay(%d)=%v",
				n, policy.Delay(n), n+1, policy.Delay(n+1))
		}
	}
}

func TestBackoffDelayLinearProgression(t *testing.T) {
	policy := BackoffPolicy{Base: 30 * time.Second, Step: 30 * time.Second, Cap: 5 * time.Minute}

	want := []time.Duration{
		30 * time.Second,
		60 * time.Second,
		90 * time.Second,
		120 * time.Second,
		150 * time.Second,
	}
	for i, expected := range want {
		if got := policy.Delay(i + 1); got != expected {
			t.Errorf("Delay(%d): expected %v, got %v", i+1, expected, got)
		}
	}
}

func TestBackoffDelayCapped(t *testing.T) {
	policy := BackoffPolicy{Base: 30 * time.Second, Step: 30 * time.Second, Cap: 5 * time.Minute}

	if got := policy.Delay(100); got != 5*time.Minute {
		t.Errorf("Expected cap at 5m, got %v", got)
	}
}

func TestBackoffDelayClampsBelowOne(t *testing.T) {
	policy := BackoffPolicy{Base: 30 * time.Second, Step: 30 * time.Second, Cap: 5 * time.Minute}

	if got := policy.Delay(0); got != 30*time.Second {
		t.Errorf("Expected base delay for n=0, got %v", got)
	}
}
