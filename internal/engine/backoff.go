package engine

import "time"

// BackoffPolicy computes the wait before the next restart attempt. The delay
// grows linearly with the consecutive-failure count and is capped so the
// watchdog never effectively stops retrying.
type BackoffPolicy struct {
	Base time.Duration
	Step time.Duration
	Cap  time.Duration
}

// Delay returns the backoff for the nth consecutive failure (n >= 1).
// With the defaults (30s base, 30s step) the progression is the camera
// service's slow-start reality: 30, 60, 90, 120, 150...
func (p BackoffPolicy) Delay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	d := p.Base + time.Duration(n-1)*p.Step
	if p.Cap > 0 && d > p.Cap {
		return p.Cap
	}
	return d
}
