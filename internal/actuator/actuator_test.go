package actuator

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRestartInvokesSystemctl(t *testing.T) {
	var gotName string
	var gotArgs []string

	act := NewSystemdActuator("crowsnest").WithRunner(
		func(ctx context.Context, name string, args ...string) ([]byte, error) {
			gotName = name
			gotArgs = args
			return nil, nil
		})

	if err := act.Restart(context.Background()); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	if gotName != "systemctl" {
		t.Errorf("Expected systemctl, got %s", gotName)
	}
	if len(gotArgs) != 2 || gotArgs[0] != "restart" || gotArgs[1] != "crowsnest" {
		t.Errorf("Expected [restart crowsnest], got %v", gotArgs)
	}
}

func TestRestartFailureIncludesOutput(t *testing.T) {
	act := NewSystemdActuator("crowsnest").WithRunner(
		func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return []byte("Failed to restart crowsnest.service: Unit not found.\n"),
				errors.New("exit status 5")
		})

	err := act.Restart(context.Background())
	if err == nil {
		t.Fatal("Expected error for failed restart")
	}
	if !strings.Contains(err.Error(), "Unit not found") {
		t.Errorf("Expected systemctl output in error, got: %v", err)
	}
	if !strings.Contains(err.Error(), "exit status 5") {
		t.Errorf("Expected underlying exit error wrapped, got: %v", err)
	}
}

func TestRestartFailureWithoutOutput(t *testing.T) {
	act := NewSystemdActuator("crowsnest").WithRunner(
		func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return nil, errors.New("executable file not found in $PATH")
		})

	err := act.Restart(context.Background())
	if err == nil {
		t.Fatal("Expected error when restart command is unavailable")
	}
	if !strings.Contains(err.Error(), "crowsnest") {
		t.Errorf("Expected service name in error, got: %v", err)
	}
}
