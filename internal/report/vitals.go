package report

import (
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// Vitals is a snapshot of host health captured with each run. On a
// single-board device a failing camera service often correlates with memory
// pressure or thermal throttling, so the context is worth keeping next to
// the probe outcome.
type Vitals struct {
	UptimeSeconds  uint64  `json:"uptime_seconds"`
	Load1          float64 `json:"load1"`
	Load5          float64 `json:"load5"`
	MemTotalBytes  uint64  `json:"mem_total_bytes"`
	MemUsedPercent float64 `json:"mem_used_percent"`
}

// CaptureVitals collects host vitals. Best effort: a failure returns nil
// rather than blocking the watchdog decision.
func CaptureVitals() *Vitals {
	v := &Vitals{}

	uptime, err := host.Uptime()
	if err != nil {
		return nil
	}
	v.UptimeSeconds = uptime

	if avg, err := load.Avg(); err == nil {
		v.Load1 = avg.Load1
		v.Load5 = avg.Load5
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		v.MemTotalBytes = vm.Total
		v.MemUsedPercent = vm.UsedPercent
	}

	return v
}
