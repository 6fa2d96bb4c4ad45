//go:build !windows

package shell

import (
	"os/exec"
	"syscall"
)

// configureProcAttr runs cmd in its own process group, separate from the
// caller's. It sets no cancel hook, so cancelling the context kills only
// cmd's own process, not the rest of the group.
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}
