package rendezvous

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connection.json")
	want := ConnectionSettings{Endpoint: "/tmp/does-not-matter.sock"}

	if err := Write(path, want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestLoadPrefersEnvOverrideOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connection.json")
	if err := Write(path, ConnectionSettings{Endpoint: "/from/file.sock"}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	t.Setenv(EnvSocketOverride, "/from/env.sock")

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Endpoint != "/from/env.sock" {
		t.Fatalf("expected env override to win, got %q", got.Endpoint)
	}
}

func TestLoadFailsOnMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected an error loading a nonexistent connection file")
	}
}

func TestErrNoSocketPathFoundIncludesReasons(t *testing.T) {
	err := &ErrNoSocketPathFound{Reasons: []string{"reason one", "reason two"}}
	msg := err.Error()
	if !contains(msg, "reason one") || !contains(msg, "reason two") {
		t.Fatalf("expected both reasons in error message, got %q", msg)
	}
}

func contains(haystack, needle string) bool {
	return len(haystack) >= len(needle) && (func() bool {
		for i := 0; i+len(needle) <= len(haystack); i++ {
			if haystack[i:i+len(needle)] == needle {
				return true
			}
		}
		return false
	})()
}

func TestWriteSetsOwnerOnlyPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "connection.json")
	if err := Write(path, ConnectionSettings{Endpoint: "/tmp/x.sock"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected mode 0600, got %v", info.Mode().Perm())
	}
}
