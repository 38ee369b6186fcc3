//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

func setGroupAttr(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// KillProcessGroup sends SIGKILL to the process group led by pid.
func KillProcessGroup(pid int) {
	// Best-effort; exec.Cmd still kills the leader after WaitDelay.
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
