// Package engine implements the watchdog decision loop: one invocation loads
// the persisted state, probes the camera service, applies the
// backoff/degraded-mode policy, optionally restarts the service, and persists
// the updated state.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/seaward/cnwatch/internal/actuator"
	"github.com/seaward/cnwatch/internal/config"
	"github.com/seaward/cnwatch/internal/logging"
	"github.com/seaward/cnwatch/internal/probe"
	"github.com/seaward/cnwatch/internal/report"
	"github.com/seaward/cnwatch/internal/state"
)

// Phase is the conceptual state of the watchdog, derived from the persisted
// counters and the probe result. It is never stored; the on-disk format stays
// flat counters.
type Phase string

const (
	PhaseHealthy        Phase = "healthy"
	PhaseBackoffPending Phase = "backoff_pending"
	PhaseRetrying       Phase = "retrying"
	PhaseDegraded       Phase = "degraded"
)

// DerivePhase computes the conceptual phase from the counters and probe outcome
func DerivePhase(s state.WatchdogState, healthy bool, now time.Time, failureThreshold int) Phase {
	if healthy {
		return PhaseHealthy
	}
	if s.ConsecutiveFailures >= failureThreshold {
		return PhaseDegraded
	}
	if s.BackoffActive(now) {
		return PhaseBackoffPending
	}
	return PhaseRetrying
}

// Engine runs one check-and-maybe-restart decision per invocation
type Engine struct {
	prober   probe.Prober
	actuator actuator.Actuator
	store    state.Store
	policy   BackoffPolicy
	cfg      config.Config
	logger   *logging.Logger

	// now is replaceable for tests
	now func() time.Time
}

// New creates a decision engine
func New(cfg config.Config, p probe.Prober, a actuator.Actuator, st state.Store, logger *logging.Logger) *Engine {
	return &Engine{
		prober:   p,
		actuator: a,
		store:    st,
		policy: BackoffPolicy{
			Base: cfg.BackoffBase,
			Step: cfg.BackoffStep,
			Cap:  cfg.BackoffCap,
		},
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the engine's time source
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Run executes one invocation of the watchdog. The returned report describes
// what happened; the returned error is non-nil only when the watchdog itself
// malfunctioned (state persistence failure), never for an unhealthy service
// or a failed restart command.
func (e *Engine) Run(ctx context.Context) (report.RunReport, error) {
	now := e.now()

	rep := report.RunReport{
		RanAt:   now,
		Service: e.cfg.ServiceName,
		URL:     e.cfg.EndpointURL,
	}

	// 1. Load persisted state; fall back to fresh on anomaly. Undercounting
	// failures only delays degraded mode, which is the safe direction.
	st, err := e.store.Load()
	if err != nil && !errors.Is(err, state.ErrNoState) {
		e.logger.Warn("State unreadable, proceeding with fresh state", map[string]interface{}{
			"error": err.Error(),
		})
		rep.StateAnomaly = err.Error()
	}

	// 2. Probe the endpoint
	result := e.prober.Check(ctx)
	rep.Probe = result

	phase := DerivePhase(st, result.Healthy, now, e.cfg.FailureThreshold)
	rep.Phase = string(phase)

	switch phase {
	case PhaseHealthy:
		// 3. One healthy check fully clears all bookkeeping.
		if st.ConsecutiveFailures > 0 || st.DegradedInvocationCounter > 0 {
			e.logger.Info("Service recovered, clearing failure state", map[string]interface{}{
				"service":          e.cfg.ServiceName,
				"cleared_failures": st.ConsecutiveFailures,
			})
		}
		st = state.Fresh()
		rep.Action = report.ActionNone

	case PhaseBackoffPending:
		// 4a. Within an active backoff window: no action.
		e.logger.Info("Service unhealthy, within backoff window", map[string]interface{}{
			"service":        e.cfg.ServiceName,
			"eligible_again": st.NextEligibleRestartAttempt.Format(time.RFC3339),
		})
		rep.Action = report.ActionBackoffSkip

	case PhaseRetrying:
		// 4b. Eligible to restart now.
		st = e.attemptRestart(ctx, st, now, &rep)

	case PhaseDegraded:
		// 5. Throttled: restart on every Nth invocation only.
		st.DegradedInvocationCounter++
		if st.DegradedInvocationCounter%e.cfg.DegradedThrottleFactor == 0 {
			e.logger.Warn("Degraded mode restart attempt", map[string]interface{}{
				"service":              e.cfg.ServiceName,
				"consecutive_failures": st.ConsecutiveFailures,
				"degraded_counter":     st.DegradedInvocationCounter,
			})
			st = e.attemptRestart(ctx, st, now, &rep)
		} else {
			e.logger.Warn("Degraded mode, throttling restart", map[string]interface{}{
				"service":          e.cfg.ServiceName,
				"degraded_counter": st.DegradedInvocationCounter,
				"throttle_factor":  e.cfg.DegradedThrottleFactor,
			})
			rep.Action = report.ActionDegradedSkip
		}
	}

	rep.ConsecutiveFailures = st.ConsecutiveFailures
	rep.DegradedInvocationCounter = st.DegradedInvocationCounter
	if !st.NextEligibleRestartAttempt.IsZero() {
		t := st.NextEligibleRestartAttempt
		rep.NextEligibleRestart = &t
	}

	// Persistence failure after a completed decision is the one fatal fault:
	// silent loss of failure-count continuity would defeat the whole design.
	if err := e.store.Save(st); err != nil {
		e.logger.Error("Failed to persist watchdog state", map[string]interface{}{
			"error": err.Error(),
		})
		return rep, fmt.Errorf("failed to persist state: %w", err)
	}

	return rep, nil
}

// attemptRestart invokes the actuator and advances the failure bookkeeping.
// The restart outcome does not branch the state transition: recovery is
// asynchronous, so success of the restart command says nothing about the
// service actually coming back.
func (e *Engine) attemptRestart(ctx context.Context, st state.WatchdogState, now time.Time, rep *report.RunReport) state.WatchdogState {
	rep.Action = report.ActionRestart
	rep.RestartAttempted = true

	e.logger.Info("Restarting service", map[string]interface{}{
		"service": e.cfg.ServiceName,
		"attempt": st.ConsecutiveFailures + 1,
	})

	if err := e.actuator.Restart(ctx); err != nil {
		e.logger.Error("Restart command failed", map[string]interface{}{
			"service": e.cfg.ServiceName,
			"error":   err.Error(),
		})
		rep.RestartError = err.Error()
	} else {
		rep.RestartOK = true
	}

	st.ConsecutiveFailures++
	st.NextEligibleRestartAttempt = now.Add(e.policy.Delay(st.ConsecutiveFailures))

	return st
}
