//go:build unix

package rendezvous

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/google/uuid"
)

// maxSocketNameLength returns unix(7)'s address-length limit minus the null
// terminator, per spec.md §4.1: 107 bytes on Linux (108-byte sun_path) and
// 103 on macOS (104-byte sun_path).
func maxSocketNameLength() int {
	if runtime.GOOS == "darwin" {
		return 103
	}
	return 107
}

// SocketPath selects the directory for this process' socket: the user's home
// directory under .openjd/adaptors/sockets/<namespace>, falling back to the
// system temp directory (only if it has the sticky bit set), per spec.md
// §4.7. Returns *ErrNoSocketPathFound if neither candidate is usable.
func SocketPath(namespace string) (string, error) {
	pid := strconv.Itoa(os.Getpid())
	var reasons []string

	if home, err := os.UserHomeDir(); err == nil {
		dir := filepath.Join(home, ".openjd", "adaptors", "sockets", namespace)
		if path, ok := tryDir(dir, pid, &reasons, "home directory"); ok {
			return path, nil
		}
	} else {
		reasons = append(reasons, "cannot determine home directory: "+err.Error())
	}

	tempDir := os.TempDir()
	if sticky, err := hasStickyBit(tempDir); err != nil {
		reasons = append(reasons, "cannot stat temp directory "+tempDir+": "+err.Error())
	} else if !sticky {
		reasons = append(reasons, "cannot use temporary directory "+tempDir+" because it does not have the sticky bit set")
	} else {
		dir := filepath.Join(tempDir, ".openjd", "adaptors", "sockets", namespace)
		if path, ok := tryDir(dir, pid, &reasons, "temp directory"); ok {
			return path, nil
		}
	}

	return "", &ErrNoSocketPathFound{Reasons: reasons}
}

func tryDir(dir, baseName string, reasons *[]string, label string) (string, bool) {
	path := genSocketPath(dir, baseName)
	if len(path) > maxSocketNameLength() {
		*reasons = append(*reasons, "cannot create socket in the "+label+" at "+dir+" because the path is too long")
		return "", false
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		*reasons = append(*reasons, "cannot create "+label+" at "+dir+": "+err.Error())
		return "", false
	}
	return path, true
}

func genSocketPath(dir, baseName string) string {
	name := baseName
	for {
		path := filepath.Join(dir, name)
		if _, err := os.Lstat(path); os.IsNotExist(err) {
			return path
		}
		name = baseName + "_" + uuidSuffix()
	}
}

func uuidSuffix() string {
	return uuid.New().String()
}

func hasStickyBit(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	return info.Mode()&os.ModeSticky != 0, nil
}
