//go:build unix

package frontend

import (
	"bytes"
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/OpenJobDescription/adaptor-runtime-go/adaptor"
	"github.com/OpenJobDescription/adaptor-runtime-go/background"
	"github.com/OpenJobDescription/adaptor-runtime-go/logbuffer"
	"github.com/OpenJobDescription/adaptor-runtime-go/rendezvous"
	"github.com/OpenJobDescription/adaptor-runtime-go/transport"
)

type blockingAdaptor struct {
	adaptor.BaseAdaptor
	release chan struct{}
}

func (a *blockingAdaptor) Run(map[string]any) error {
	<-a.release
	return nil
}

// Cancel releases the in-flight Run, the way a real adaptor observes a cancel.
func (a *blockingAdaptor) Cancel() error {
	close(a.release)
	return nil
}

// startTestBackend spins up a real background.Server over a UNIX socket,
// writes the connection file the same way the spawned backend process would,
// and returns a Client wired directly to it (skipping Init's process spawn,
// which client_test.go cannot exercise without a built reentry binary).
func startTestBackend(t *testing.T, a adaptor.Adaptor) (*Client, *adaptor.Runner, func()) {
	t.Helper()
	dir := t.TempDir()
	socketPath := filepath.Join(dir, "adaptor.sock")
	connectionFile := filepath.Join(dir, "connection.json")

	ln, err := transport.Listen(socketPath)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	buffer := logbuffer.NewMemory(nil)
	runnerLogger := log.New(logbuffer.NewHandler(buffer), "", 0)
	runner := adaptor.NewRunner(a, runnerLogger)
	server := background.NewServer(ln, runner, buffer, log.New(io.Discard, "", 0))

	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Serve(ctx) }()

	if err := rendezvous.Write(connectionFile, rendezvous.ConnectionSettings{Endpoint: socketPath}); err != nil {
		t.Fatalf("Write connection file: %v", err)
	}

	var out bytes.Buffer
	client := NewClient(Options{
		ConnectionFilePath: connectionFile,
		Timeout:            2 * time.Second,
		HeartbeatInterval:  20 * time.Millisecond,
		AdaptorOutputWriter: &out,
		Logger:              log.New(io.Discard, "", 0),
	})
	if err := client.Attach(); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	return client, runner, func() {
		cancel()
		<-serveErr
	}
}

func TestClientStartRunStopDrivesRunnerThroughLifecycle(t *testing.T) {
	client, runner, stop := startTestBackend(t, &adaptor.BaseAdaptor{})
	defer stop()
	ctx := context.Background()

	if err := client.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if runner.State() != adaptor.Start {
		t.Fatalf("expected Start, got %v", runner.State())
	}
	if err := client.Run(ctx, map[string]any{"frame": 1.0}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if runner.State() != adaptor.Run {
		t.Fatalf("expected Run, got %v", runner.State())
	}
	if err := client.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if runner.State() != adaptor.Cleanup {
		t.Fatalf("expected Cleanup, got %v", runner.State())
	}
}

func TestClientRunSurfacesAdaptorFailure(t *testing.T) {
	client, _, stop := startTestBackend(t, &failingAdaptor{})
	defer stop()
	ctx := context.Background()

	if err := client.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	err := client.Run(ctx, nil)
	if err == nil {
		t.Fatal("expected Run to surface the adaptor failure")
	}
	if _, ok := err.(*AdaptorFailedError); !ok {
		t.Fatalf("expected *AdaptorFailedError, got %T: %v", err, err)
	}
}

func TestClientCancelUnblocksInFlightRun(t *testing.T) {
	a := &blockingAdaptor{release: make(chan struct{})}
	client, runner, stop := startTestBackend(t, a)
	defer stop()
	ctx := context.Background()

	if err := client.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	runErrCh := make(chan error, 1)
	go func() { runErrCh <- client.Run(ctx, nil) }()

	deadline := time.After(time.Second)
	for runner.State() != adaptor.Run {
		select {
		case <-deadline:
			t.Fatal("runner never reached Run state")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if err := client.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	select {
	case <-runErrCh:
	case <-time.After(2 * time.Second):
		t.Fatal("Run never returned after cancel")
	}
}

type failingAdaptor struct {
	adaptor.BaseAdaptor
}

func (failingAdaptor) Run(map[string]any) error {
	return errTaskFailed
}

var errTaskFailed = errTask("task failed")

type errTask string

func (e errTask) Error() string { return string(e) }
