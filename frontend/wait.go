package frontend

import (
	"context"
	"fmt"
	"os"
	"time"
)

const waitForFilePollInterval = 50 * time.Millisecond

// waitForFile polls until path exists and can be opened for reading, or
// returns an error once timeout elapses or ctx is canceled (spec.md §4.6).
// The check is an open for reading only: a file that exists but whose
// contents are still being written passes it too.
func waitForFile(ctx context.Context, path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		f, err := os.Open(path)
		if err == nil {
			_ = f.Close()
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out after %s waiting for %s: %w", timeout, path, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitForFilePollInterval):
		}
	}
}
