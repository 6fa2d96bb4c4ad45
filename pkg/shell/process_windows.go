//go:build windows

package shell

import "os/exec"

// configureProcAttr is a no-op on Windows; process-group semantics are
// handled differently there and are not exercised by this module's
// adapters.
func configureProcAttr(cmd *exec.Cmd) {}
