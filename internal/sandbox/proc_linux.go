//go:build linux

package sandbox

import (
	"os/exec"
	"syscall"
)

// setPlatformAttrs binds the interpreter to this process on Linux: if the
// server dies while a run is in flight, the kernel kills the child too.
func setPlatformAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Pdeathsig: syscall.SIGKILL,
	}
}
