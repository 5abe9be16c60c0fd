//go:build unix

package rendezvous

import (
	"os"
	"strconv"
	"strings"
	"testing"
)

func TestSocketPathEndsInCurrentPID(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path, err := SocketPath("runtime")
	if err != nil {
		t.Fatalf("SocketPath: %v", err)
	}
	if !strings.HasSuffix(path, strconv.Itoa(os.Getpid())) {
		t.Fatalf("expected path to end with the current pid, got %q", path)
	}
	if !strings.Contains(path, "runtime") {
		t.Fatalf("expected namespace segment in path, got %q", path)
	}
}

func TestSocketPathAppendsSuffixOnCollision(t *testing.T) {
	// A short HOME keeps the suffixed path under maxSocketNameLength, so the
	// suffix (not the temp-directory fallback) is what makes the paths differ.
	home, err := os.MkdirTemp("/tmp", "rv")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(home) })
	t.Setenv("HOME", home)

	first, err := SocketPath("runtime")
	if err != nil {
		t.Fatalf("SocketPath: %v", err)
	}
	// SocketPath only creates the parent directory, not the socket file
	// itself; touch a file at the exact path to force a collision.
	f, err := os.Create(first)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	_ = f.Close()

	second, err := SocketPath("runtime")
	if err != nil {
		t.Fatalf("SocketPath: %v", err)
	}
	if second == first {
		t.Fatal("expected a distinct path once the first candidate exists")
	}
	if !strings.HasPrefix(second, first+"_") {
		t.Fatalf("expected %q to be %q with a suffix appended", second, first)
	}
}
