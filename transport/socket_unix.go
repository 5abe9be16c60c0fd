//go:build unix

package transport

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"
)

type unixListener struct {
	ln *net.UnixListener
}

// Listen creates a UNIX-domain stream socket at endpoint (a filesystem path).
// Any stale socket file left over from a prior process is removed first; the
// caller (rendezvous) is responsible for choosing a path that isn't already
// owned by a live listener.
func Listen(endpoint string) (Listener, error) {
	_ = os.Remove(endpoint)
	addr, err := net.ResolveUnixAddr("unix", endpoint)
	if err != nil {
		return nil, err
	}
	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, err
	}
	return &unixListener{ln: ln}, nil
}

func (l *unixListener) Accept() (net.Conn, error) { return l.ln.AcceptUnix() }
func (l *unixListener) Close() error              { return l.ln.Close() }
func (l *unixListener) Addr() net.Addr            { return l.ln.Addr() }
func (l *unixListener) Backend() Backend          { return BackendUnix }

func dialOnce(ctx context.Context, endpoint string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", endpoint)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ENOENT) {
			return nil, err
		}
		return nil, err
	}
	return conn, nil
}

// Authenticate rejects conn unless its peer credential reports the same
// effective UID this process runs as (spec.md §4.1: SO_PEERCRED on Linux,
// LOCAL_PEERCRED on macOS). peerUID is implemented per-OS since the socket
// option and the credential struct it fills differ between them.
func Authenticate(conn net.Conn) error {
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		return ErrPeerUnauthorized
	}
	peerUID, err := peerUID(uc)
	if err != nil {
		return err
	}
	if peerUID != uint32(os.Getuid()) {
		return ErrPeerUnauthorized
	}
	return nil
}
