//go:build unix

package rendezvous

import "os"

// SecureCreate opens path for writing with owner-only permissions: mode
// S_IRUSR|S_IWUSR OR'd with mask, per spec.md §4.7 / SPEC_FULL.md §4's
// secure_open. Any pre-existing file at path is truncated.
func SecureCreate(path string, mask os.FileMode) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600|mask)
}
