package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/seaward/cnwatch/internal/probe"
	"github.com/seaward/cnwatch/internal/report"
)

func TestWriteTextfile(t *testing.T) {
	dir := t.TempDir()

	rep := report.RunReport{
		RanAt:               time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Service:             "crowsnest",
		Probe:               probe.Result{Healthy: false, StatusCode: 503},
		Phase:               "degraded",
		RestartAttempted:    true,
		ConsecutiveFailures: 6,
	}

	if err := WriteTextfile(dir, rep); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "cnwatch.prom"))
	if err != nil {
		t.Fatalf("Failed to read textfile: %v", err)
	}
	content := string(data)

	checks := []string{
		`cnwatch_healthy{service="crowsnest"} 0`,
		"cnwatch_consecutive_failures 6",
		"cnwatch_degraded 1",
		"cnwatch_restart_attempted 1",
		"cnwatch_last_run_timestamp_seconds",
	}
	for _, want := range checks {
		if !strings.Contains(content, want) {
			t.Errorf("Textfile missing %q:\n%s", want, content)
		}
	}
}

func TestWriteTextfileHealthyRun(t *testing.T) {
	dir := t.TempDir()

	rep := report.RunReport{
		RanAt:   time.Now(),
		Service: "crowsnest",
		Probe:   probe.Result{Healthy: true, StatusCode: 200},
		Phase:   "healthy",
	}

	if err := WriteTextfile(dir, rep); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "cnwatch.prom"))
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)

	if !strings.Contains(content, `cnwatch_healthy{service="crowsnest"} 1`) {
		t.Errorf("Expected healthy gauge set:\n%s", content)
	}
	if !strings.Contains(content, "cnwatch_consecutive_failures 0") {
		t.Errorf("Expected zero failures:\n%s", content)
	}
}

func TestWriteTextfileLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()

	if err := WriteTextfile(dir, report.RunReport{RanAt: time.Now()}); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "cnwatch.prom.tmp")); !os.IsNotExist(err) {
		t.Error("Expected temp file to be renamed away")
	}
}
