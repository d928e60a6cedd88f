//go:build !linux

package sandbox

import "os/exec"

// setPlatformAttrs is a no-op off Linux; the context's kill signal from
// exec.CommandContext is the only lifecycle tie available.
func setPlatformAttrs(_ *exec.Cmd) {}
