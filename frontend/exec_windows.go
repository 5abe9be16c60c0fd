//go:build windows

package frontend

import (
	"os/exec"
	"syscall"
	"time"
)

// setNewSession starts cmd detached from the frontend's console so a
// Ctrl+Break delivered to this process does not propagate to the backend,
// per spec.md §4.6.
func setNewSession(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}

// fileReadyTimeout is the Windows connection-file wait budget (spec.md §4.6:
// "up to 5s on POSIX, 10s on Windows" — named pipe backends take longer to
// come up).
func fileReadyTimeout() time.Duration { return 10 * time.Second }
