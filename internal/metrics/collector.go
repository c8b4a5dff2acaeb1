package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/seaward/cnwatch/internal/report"
)

// ReportCollector exposes the last persisted run report as Prometheus
// metrics, re-reading the report file on every scrape so the status server
// never holds stale values from a previous watchdog run.
type ReportCollector struct {
	reportPath string

	healthyDesc  *prometheus.Desc
	failuresDesc *prometheus.Desc
	degradedDesc *prometheus.Desc
	lastRunDesc  *prometheus.Desc
}

// NewReportCollector creates a collector reading the report at path
func NewReportCollector(reportPath string) *ReportCollector {
	return &ReportCollector{
		reportPath: reportPath,
		healthyDesc: prometheus.NewDesc(
			"cnwatch_healthy",
			"Whether the monitored endpoint was healthy on the last check (1) or not (0)",
			[]string{"service"}, nil,
		),
		failuresDesc: prometheus.NewDesc(
			"cnwatch_consecutive_failures",
			"Consecutive failed check-and-restart cycles",
			nil, nil,
		),
		degradedDesc: prometheus.NewDesc(
			"cnwatch_degraded",
			"Whether the watchdog is in degraded (throttled) mode",
			nil, nil,
		),
		lastRunDesc: prometheus.NewDesc(
			"cnwatch_last_run_timestamp_seconds",
			"Unix timestamp of the last watchdog run",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *ReportCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.healthyDesc
	ch <- c.failuresDesc
	ch <- c.degradedDesc
	ch <- c.lastRunDesc
}

// Collect implements prometheus.Collector
func (c *ReportCollector) Collect(ch chan<- prometheus.Metric) {
	rep, err := report.Read(c.reportPath)
	if err != nil {
		// No report yet: nothing to expose
		return
	}

	healthy := 0.0
	if rep.Probe.Healthy {
		healthy = 1
	}
	ch <- prometheus.MustNewConstMetric(c.healthyDesc, prometheus.GaugeValue, healthy, rep.Service)

	ch <- prometheus.MustNewConstMetric(c.failuresDesc, prometheus.GaugeValue, float64(rep.ConsecutiveFailures))

	degraded := 0.0
	if rep.Phase == "degraded" {
		degraded = 1
	}
	ch <- prometheus.MustNewConstMetric(c.degradedDesc, prometheus.GaugeValue, degraded)

	ch <- prometheus.MustNewConstMetric(c.lastRunDesc, prometheus.GaugeValue, float64(rep.RanAt.Unix()))
}
