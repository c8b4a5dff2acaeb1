// Package report records the outcome of each watchdog invocation in a small
// JSON file alongside the state, for `cnwatch status` and the read-only
// status server.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/seaward/cnwatch/internal/probe"
)

// Action is what the decision engine did this invocation
type Action string

const (
	ActionNone           Action = "none"
	ActionRestart        Action = "restart"
	ActionBackoffSkip    Action = "backoff_skip"
	ActionDegradedSkip   Action = "degraded_skip"
	ActionOverlapSkipped Action = "overlap_skipped"
)

// RunReport captures one invocation's outcome
type RunReport struct {
	RanAt   time.Time `json:"ran_at"`
	Service string    `json:"service"`
	URL     string    `json:"url"`

	Probe probe.Result `json:"probe"`

	Phase  string `json:"phase"`
	Action Action `json:"action"`

	RestartAttempted bool   `json:"restart_attempted"`
	RestartOK        bool   `json:"restart_ok,omitempty"`
	RestartError     string `json:"restart_error,omitempty"`

	ConsecutiveFailures       int        `json:"consecutive_failures"`
	NextEligibleRestart       *time.Time `json:"next_eligible_restart,omitempty"`
	DegradedInvocationCounter int        `json:"degraded_invocation_counter"`

	StateAnomaly string `json:"state_anomaly,omitempty"`

	Vitals *Vitals `json:"vitals,omitempty"`
}

// Write persists the report atomically at the given path
func Write(path string, r RunReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write run report: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace run report: %w", err)
	}
	return nil
}

// Read loads the last run report
func Read(path string) (RunReport, error) {
	var r RunReport
	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("failed to read run report: %w", err)
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("failed to parse run report: %w", err)
	}
	return r, nil
}
