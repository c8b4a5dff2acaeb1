// Package actuator restarts the monitored service through the system service
// manager. The actuator performs no retries of its own; retry policy lives in
// the decision engine.
package actuator

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Actuator restarts the monitored service
type Actuator interface {
	Restart(ctx context.Context) error
}

// SystemdActuator restarts a service via systemctl
type SystemdActuator struct {
	serviceName string
	runner      CommandRunner
}

// CommandRunner executes a command and returns its combined output.
// Injectable for tests.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func defaultRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// NewSystemdActuator creates an actuator for the named systemd unit
func NewSystemdActuator(serviceName string) *SystemdActuator {
	return &SystemdActuator{
		serviceName: serviceName,
		runner:      defaultRunner,
	}
}

// WithRunner overrides the command runner
func (a *SystemdActuator) WithRunner(r CommandRunner) *SystemdActuator {
	a.runner = r
	return a
}

// Restart issues `systemctl restart <service>`. No deadline is imposed here;
// systemd's own job timeout semantics apply.
func (a *SystemdActuator) Restart(ctx context.Context) error {
	output, err := a.runner(ctx, "systemctl", "restart", a.serviceName)
	if err != nil {
		msg := strings.TrimSpace(string(output))
		if msg != "" {
			return fmt.Errorf("systemctl restart %s failed: %w: %s", a.serviceName, err, msg)
		}
		return fmt.Errorf("systemctl restart %s failed: %w", a.serviceName, err)
	}
	return nil
}
