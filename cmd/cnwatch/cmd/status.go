package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/seaward/cnwatch/internal/report"
	"github.com/seaward/cnwatch/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show persisted watchdog state and the last run outcome",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusView struct {
	State   state.WatchdogState `json:"state"`
	LastRun *report.RunReport   `json:"last_run,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := state.NewFileStore(cfg.StatePath())
	st, err := store.Load()
	if err != nil && !errors.Is(err, state.ErrNoState) {
		fmt.Fprintf(os.Stderr, "Warning: state unreadable (%v), showing fresh state\n", err)
	}

	view := statusView{State: st}
	if rep, err := report.Read(cfg.ReportPath()); err == nil {
		view.LastRun = &rep
	}

	if IsJSONOutput() {
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode status: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Field", "Value")

	table.Append("Service", cfg.ServiceName)
	table.Append("Endpoint", cfg.EndpointURL)
	table.Append("Consecutive failures", fmt.Sprintf("%d", st.ConsecutiveFailures))

	if st.NextEligibleRestartAttempt.IsZero() {
		table.Append("Next eligible restart", "-")
	} else {
		table.Append("Next eligible restart", st.NextEligibleRestartAttempt.Format(time.RFC3339))
	}

	degraded := "no"
	if st.ConsecutiveFailures >= cfg.FailureThreshold {
		degraded = fmt.Sprintf("yes (counter %d/%d)", st.DegradedInvocationCounter, cfg.DegradedThrottleFactor)
	}
	table.Append("Degraded mode", degraded)

	if view.LastRun != nil {
		rep := view.LastRun
		table.Append("Last run", rep.RanAt.Format(time.RFC3339))
		table.Append("Last probe", probeSummary(rep))
		table.Append("Last action", string(rep.Action))
		if rep.RestartAttempted && !rep.RestartOK {
			table.Append("Last restart error", rep.RestartError)
		}
	} else {
		table.Append("Last run", "never")
	}

	table.Render()
	return nil
}

func probeSummary(rep *report.RunReport) string {
	if rep.Probe.Healthy {
		return fmt.Sprintf("healthy (HTTP %d, %.0fms)", rep.Probe.StatusCode,
			float64(rep.Probe.ResponseTime.Microseconds())/1000.0)
	}
	if rep.Probe.StatusCode != 0 {
		return fmt.Sprintf("unhealthy (HTTP %d)", rep.Probe.StatusCode)
	}
	return fmt.Sprintf("unhealthy (%s)", rep.Probe.Error)
}
