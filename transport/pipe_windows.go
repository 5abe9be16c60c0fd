//go:build windows

package transport

import (
	"context"
	"net"

	winio "github.com/tailscale/go-winio"
)

// pipeSecurityDescriptor grants the owner full access and explicitly denies
// the built-in "Network" logon group, per spec.md §4.1's Windows backend:
// "Security attributes permit only the current user ... and explicitly deny
// the built-in Network SID."
const pipeSecurityDescriptor = "D:(D;;GA;;;NU)(A;;GA;;;OW)"

type pipeListener struct {
	ln net.Listener
}

// Listen creates a named pipe at endpoint (of the form
// `\\.\pipe\<name>_<pid>`), message-typed, message-read-mode, duplex, per
// spec.md §4.1's Windows backend. go-winio's accept loop hands out a fresh
// pipe instance per Accept call rather than exposing a raw instance-count
// knob, which is the closest equivalent of the spec's "small fixed instance
// cap (>= 2)" available through this library.
func Listen(endpoint string) (Listener, error) {
	ln, err := winio.ListenPipe(endpoint, &winio.PipeConfig{
		SecurityDescriptor: pipeSecurityDescriptor,
		MessageMode:        true,
		InputBufferSize:    4096,
		OutputBufferSize:   4096,
	})
	if err != nil {
		return nil, err
	}
	return &pipeListener{ln: ln}, nil
}

func (l *pipeListener) Accept() (net.Conn, error) { return l.ln.Accept() }
func (l *pipeListener) Close() error              { return l.ln.Close() }
func (l *pipeListener) Addr() net.Addr            { return l.ln.Addr() }
func (l *pipeListener) Backend() Backend          { return BackendNamedPipe }

func dialOnce(ctx context.Context, endpoint string) (net.Conn, error) {
	return winio.DialPipeContext(ctx, endpoint)
}

// Authenticate is a no-op on the named-pipe backend: the security descriptor
// passed to Listen already rejects any connection attempt from a principal
// other than the current user at the OS level, so there is nothing left to
// check once Accept has returned a connection.
func Authenticate(conn net.Conn) error {
	return nil
}
