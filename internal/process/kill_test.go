package process

// Notes:
// - KillProcessGroup is only exercised with a PID that cannot exist. Real
//   group kills are covered by the converter timeout test, which spawns a
//   shell that outlives its context.
// - PID 0 is never used: syscall.Kill(-0, SIGKILL) targets our own group.

import (
	"context"
	"os/exec"
	"runtime"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestKillProcessGroup - Invalid PID Handling
// ---------------------------------------------------------------------------

func TestKillProcessGroup_InvalidPID(t *testing.T) {
	t.Parallel()

	KillProcessGroup(999999999)
}

// ---------------------------------------------------------------------------
// TestIsolate - Command Configuration
// ---------------------------------------------------------------------------

func TestIsolate_SetsCancelAndWaitDelay(t *testing.T) {
	t.Parallel()

	cmd := exec.CommandContext(context.Background(), "true")
	Isolate(cmd)

	if cmd.SysProcAttr == nil {
		t.Fatal("SysProcAttr = nil, want process group attributes")
	}
	if cmd.Cancel == nil {
		t.Error("Cancel = nil, want group kill")
	}
	if cmd.WaitDelay != WaitDelay {
		t.Errorf("WaitDelay = %v, want %v", cmd.WaitDelay, WaitDelay)
	}
}

func TestIsolate_CancelBeforeStart(t *testing.T) {
	t.Parallel()

	cmd := exec.CommandContext(context.Background(), "true")
	Isolate(cmd)

	if err := cmd.Cancel(); err != nil {
		t.Errorf("Cancel() on unstarted command = %v, want nil", err)
	}
}

func TestIsolate_KillsOnTimeout(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", "sleep 30 & sleep 30")
	Isolate(cmd)

	start := time.Now()
	err := cmd.Run()
	if err == nil {
		t.Fatal("Run() = nil, want error after timeout")
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("Run() returned after %v, want prompt kill", elapsed)
	}
}
