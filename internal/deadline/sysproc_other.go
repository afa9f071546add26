//go:build !windows

package deadline

import "os/exec"

func hideWindow(cmd *exec.Cmd) {}
