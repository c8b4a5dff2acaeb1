package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/seaward/cnwatch/internal/actuator"
	"github.com/seaward/cnwatch/internal/engine"
	"github.com/seaward/cnwatch/internal/metrics"
	"github.com/seaward/cnwatch/internal/probe"
	"github.com/seaward/cnwatch/internal/report"
	"github.com/seaward/cnwatch/internal/state"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Perform one check-and-maybe-restart decision",
	Long: `Performs a single watchdog invocation: probe the stream endpoint, apply
the backoff/degraded-mode policy, restart the service if warranted, persist
state, and exit. Intended to be triggered by cron or a systemd timer.

Exits 0 whether or not the service was healthy, as long as the decision
completed and state was persisted. Exits non-zero only when the watchdog
itself malfunctioned.`,
	RunE: runWatchdog,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runWatchdog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	defer logger.Close()

	// Overlapping runs are expected under a slow probe plus a fast cron
	// cadence; the loser exits cleanly without acting, like the original
	// lock-file guard.
	lock, err := state.Acquire(cfg.LockPath())
	if err != nil {
		if errors.Is(err, state.ErrLockHeld) {
			logger.Info("Another invocation is running, skipping", map[string]interface{}{
				"lock": cfg.LockPath(),
			})
			return nil
		}
		logger.Warn("Could not acquire invocation lock, proceeding unguarded", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer lock.Release()

	prober := probe.NewHTTPProber(cfg.EndpointURL, cfg.ProbeTimeout)
	act := actuator.NewSystemdActuator(cfg.ServiceName)
	store := state.NewFileStore(cfg.StatePath())

	eng := engine.New(cfg, prober, act, store, logger)

	rep, runErr := eng.Run(context.Background())
	rep.Vitals = report.CaptureVitals()

	if err := report.Write(cfg.ReportPath(), rep); err != nil {
		logger.Warn("Failed to write run report", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if cfg.TextfileDir != "" {
		if err := metrics.WriteTextfile(cfg.TextfileDir, rep); err != nil {
			logger.Warn("Failed to write metrics textfile", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return runErr
}
