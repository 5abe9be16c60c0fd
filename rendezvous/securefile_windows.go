//go:build windows

package rendezvous

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows"
)

// connectionFileSDDL grants the current owner read, write, and delete, and
// nothing else, mirroring original_source's set_file_permissions_in_windows
// (spec.md §4.7: "equivalent ACL restricting to the owner").
const connectionFileSDDL = "D:P(A;;FRFWSD;;;OW)"

// SecureCreate opens path for writing and applies connectionFileSDDL as its
// DACL. mask is accepted for interface parity with the POSIX backend; a
// non-zero mask is rejected with an error, matching original_source's
// secure_open, which raises if a caller tries to combine the two on this
// platform.
func SecureCreate(path string, mask os.FileMode) (*os.File, error) {
	if mask != 0 {
		return nil, fmt.Errorf("rendezvous: additional permission masks are not supported on Windows")
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}
	sd, err := windows.SecurityDescriptorFromString(connectionFileSDDL)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rendezvous: parsing security descriptor: %w", err)
	}
	dacl, _, err := sd.DACL()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rendezvous: reading DACL: %w", err)
	}
	if err := windows.SetNamedSecurityInfo(
		path,
		windows.SE_FILE_OBJECT,
		windows.DACL_SECURITY_INFORMATION|windows.PROTECTED_DACL_SECURITY_INFORMATION,
		nil, nil, dacl, nil,
	); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rendezvous: applying DACL: %w", err)
	}
	return f, nil
}
