//go:build darwin

package transport

import (
	"net"

	"golang.org/x/sys/unix"
)

// peerUID reads LOCAL_PEERCRED off the underlying socket fd, macOS's
// equivalent of Linux's SO_PEERCRED, per spec.md §4.1.
func peerUID(conn *net.UnixConn) (uint32, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return 0, err
	}
	var xucred *unix.Xucred
	var sockErr error
	if err := raw.Control(func(fd uintptr) {
		xucred, sockErr = unix.GetsockoptXucred(int(fd), unix.SOL_LOCAL, unix.LOCAL_PEERCRED)
	}); err != nil {
		return 0, err
	}
	if sockErr != nil {
		return 0, sockErr
	}
	return xucred.Uid, nil
}
