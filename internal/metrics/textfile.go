// Package metrics publishes watchdog outcomes for the node_exporter textfile
// collector. A cron-invoked process cannot hold a scrape endpoint open, so
// after each run it drops a .prom file into the collector directory instead.
package metrics

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/seaward/cnwatch/internal/report"
)

const textfileName = "cnwatch.prom"

// WriteTextfile renders the run outcome as Prometheus text format into
// dir/cnwatch.prom, atomically.
func WriteTextfile(dir string, rep report.RunReport) error {
	registry := prometheus.NewRegistry()

	healthy := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cnwatch_healthy",
		Help: "Whether the monitored endpoint was healthy on the last check (1) or not (0)",
		ConstLabels: prometheus.Labels{
			"service": rep.Service,
		},
	})
	failures := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cnwatch_consecutive_failures",
		Help: "Consecutive failed check-and-restart cycles",
	})
	degraded := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cnwatch_degraded",
		Help: "Whether the watchdog is in degraded (throttled) mode",
	})
	restartAttempted := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cnwatch_restart_attempted",
		Help: "Whether this run attempted a service restart",
	})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cnwatch_last_run_timestamp_seconds",
		Help: "Unix timestamp of the last watchdog run",
	})

	registry.MustRegister(healthy, failures, degraded, restartAttempted, lastRun)

	if rep.Probe.Healthy {
		healthy.Set(1)
	}
	failures.Set(float64(rep.ConsecutiveFailures))
	if rep.Phase == "degraded" {
		degraded.Set(1)
	}
	if rep.RestartAttempted {
		restartAttempted.Set(1)
	}
	lastRun.Set(float64(rep.RanAt.Unix()))

	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, expfmt.FmtText)
	for _, mf := range families {
		if err := encoder.Encode(mf); err != nil {
			return fmt.Errorf("failed to encode metric %s: %w", mf.GetName(), err)
		}
	}

	path := filepath.Join(dir, textfileName)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace metrics textfile: %w", err)
	}

	return nil
}
