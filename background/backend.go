package background

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OpenJobDescription/adaptor-runtime-go/adaptor"
	"github.com/OpenJobDescription/adaptor-runtime-go/logbuffer"
	"github.com/OpenJobDescription/adaptor-runtime-go/rendezvous"
	"github.com/OpenJobDescription/adaptor-runtime-go/transport"
)

// shutdownWait is how long Backend.Run waits for in-flight connections to
// drain once shutdown is triggered.
const shutdownWait = 5 * time.Second

// Backend is the `daemon _serve` process: it owns the Server, publishes a
// connection file pointing at the listener, installs signal handling, and
// tears down the connection file (and, on POSIX, the socket file) on exit.
// Grounded on original_source's BackendRunner.run and the teacher's
// daemon.Lifecycle (acquire resources, defer idempotent cleanup, install
// signal.Notify, block on a shutdown channel, run graceful shutdown).
type Backend struct {
	server         *Server
	listener       transport.Listener
	connectionFile string
	logger         *log.Logger
}

// NewBackend constructs a Backend listening on listener, wraps runner/buffer
// in a Server, and publishes the connection file at connectionFile.
func NewBackend(listener transport.Listener, runner *adaptor.Runner, buffer logbuffer.Buffer, connectionFile string, logger *log.Logger) (*Backend, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	settings := rendezvous.ConnectionSettings{Endpoint: listener.Addr().String()}
	if err := rendezvous.Write(connectionFile, settings); err != nil {
		return nil, err
	}
	return &Backend{
		server:         NewServer(listener, runner, buffer, logger),
		listener:       listener,
		connectionFile: connectionFile,
		logger:         logger,
	}, nil
}

// Run blocks until the /shutdown endpoint fires or ctx is canceled, then
// tears everything down. SIGINT/SIGTERM cancel the adaptor but do not end Run.
//
// A SIGINT/SIGTERM is routed through the same cancel path the /cancel
// endpoint uses (Router.handleCancel) rather than submitting directly to the
// runner — spec.md §9 flags the original's direct-submit signal handler as a
// likely bug, since it bypasses the busy/idle and cancelable-state checks
// every other caller of cancel gets.
func (b *Backend) Run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	serveErrCh := make(chan error, 1)
	go func() { serveErrCh <- b.server.Serve(ctx) }()

	go func() {
		for {
			select {
			case <-sigCh:
				b.logger.Print("received interrupt, canceling")
				b.server.router.handleCancel()
			case <-b.server.shutdown.Done():
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	select {
	case <-b.server.shutdown.Done():
	case <-ctx.Done():
	}

	stopErr := b.server.Stop(shutdownWait)

	_ = os.Remove(b.connectionFile)
	if b.listener.Backend() == transport.BackendUnix {
		_ = os.Remove(b.listener.Addr().String())
	}

	if serveErr := <-serveErrCh; serveErr != nil && stopErr == nil {
		return serveErr
	}
	return stopErr
}
