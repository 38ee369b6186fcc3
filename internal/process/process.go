// Package process manages child process groups so a timed-out command takes
// its descendants down with it.
package process

import (
	"os/exec"
	"time"
)

// WaitDelay bounds how long Wait keeps reading pipes after the process
// group was killed.
const WaitDelay = 5 * time.Second

// Isolate configures cmd to start in its own process group and to kill that
// whole group when its context is canceled.
func Isolate(cmd *exec.Cmd) {
	setGroupAttr(cmd)
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		KillProcessGroup(cmd.Process.Pid)
		return nil
	}
	cmd.WaitDelay = WaitDelay
}
