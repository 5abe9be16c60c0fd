//go:build unix

package frontend

import (
	"os/exec"
	"syscall"
	"time"
)

// setNewSession starts cmd in a new session so signals delivered to this
// process (the frontend) do not propagate to the backend, per spec.md §4.6.
func setNewSession(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

// fileReadyTimeout is the POSIX connection-file wait budget (spec.md §4.6:
// "up to 5s on POSIX, 10s on Windows").
func fileReadyTimeout() time.Duration { return 5 * time.Second }
