//go:build windows

package rendezvous

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

// SocketPath selects a named-pipe path of the form
// `\\.\pipe\AdaptorNamedPipe_<pid>`, appending `_<i>_<rand>` up to five times
// if a pipe of that name already exists, per spec.md §4.7. namespace is
// accepted for interface parity with the POSIX backend but unused: Windows
// pipe names are process-scoped by PID already, with no directory structure
// to namespace within.
func SocketPath(namespace string) (string, error) {
	base := fmt.Sprintf(`\\.\pipe\AdaptorNamedPipe_%d`, os.Getpid())
	if !pipeExists(base) {
		return base, nil
	}
	for i := 1; i <= 5; i++ {
		candidate := fmt.Sprintf("%s_%d_%s", base, i, randSuffix())
		if !pipeExists(candidate) {
			return candidate, nil
		}
	}
	return "", &ErrNoSocketPathFound{Reasons: []string{"exhausted 5 collision retries for " + base}}
}

func randSuffix() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// pipeExists reports whether a named pipe of this name is already being
// served, by way of a quick open attempt.
func pipeExists(name string) bool {
	f, err := os.OpenFile(name, os.O_RDONLY, 0)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}
