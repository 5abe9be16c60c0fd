// Package rendezvous implements connection-file based discovery between the
// frontend and backend (spec.md §4.7 C7): choosing where the backend's
// listener lives, publishing that endpoint through a connection file the
// frontend can find, and the OPENJD_ADAPTOR_SOCKET override that bypasses the
// file entirely.
package rendezvous

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// EnvSocketOverride is the environment variable the frontend consults before
// ever looking at a connection file (spec.md §4.7: "this environment path
// takes precedence over the file loader when set").
const EnvSocketOverride = "OPENJD_ADAPTOR_SOCKET"

// ConnectionSettings is the payload written to, and read from, a connection
// file (spec.md §3).
type ConnectionSettings struct {
	Endpoint string `json:"endpoint"`
}

// ErrNoSocketPathFound is raised by SocketPath when every candidate directory
// was rejected; Reasons accumulates why each one failed so the caller can
// report something actionable instead of a bare "not found" (SPEC_FULL.md §4,
// grounded on original_source's NoSocketPathFoundException).
type ErrNoSocketPathFound struct {
	Reasons []string
}

func (e *ErrNoSocketPathFound) Error() string {
	return fmt.Sprintf("failed to find a suitable socket path for the following reasons: %s", strings.Join(e.Reasons, "\n"))
}

// Load resolves the backend's endpoint: EnvSocketOverride wins unconditionally
// if set; otherwise the connection file at filePath is read and parsed.
func Load(filePath string) (ConnectionSettings, error) {
	if v := os.Getenv(EnvSocketOverride); v != "" {
		return ConnectionSettings{Endpoint: v}, nil
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return ConnectionSettings{}, fmt.Errorf("failed to open connection file %q: %w", filePath, err)
	}
	var settings ConnectionSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return ConnectionSettings{}, fmt.Errorf("failed to decode connection file %q: %w", filePath, err)
	}
	return settings, nil
}

// Write publishes settings to filePath with owner-only permissions (spec.md
// §4.7: mode 0600 POSIX, equivalent ACL on Windows), via SecureCreate.
func Write(filePath string, settings ConnectionSettings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	f, err := SecureCreate(filePath, 0)
	if err != nil {
		return fmt.Errorf("failed to create connection file %q: %w", filePath, err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write connection file %q: %w", filePath, err)
	}
	return nil
}
