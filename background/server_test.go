//go:build unix

package background

import (
	"context"
	"io"
	"log"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/OpenJobDescription/adaptor-runtime-go/adaptor"
	"github.com/OpenJobDescription/adaptor-runtime-go/logbuffer"
	"github.com/OpenJobDescription/adaptor-runtime-go/transport"
)

func newTestClient(socketPath string) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, "unix", socketPath)
			},
		},
		Timeout: 2 * time.Second,
	}
}

func TestServerServesStartAndHeartbeatOverUnixSocket(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "adaptor.sock")
	ln, err := transport.Listen(socketPath)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	runner := adaptor.NewRunner(adaptor.BaseAdaptor{}, log.New(io.Discard, "", 0))
	buffer := logbuffer.NewMemory(nil)
	server := NewServer(ln, runner, buffer, log.New(io.Discard, "", 0))

	ctx, cancel := context.WithCancel(context.Background())
	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Serve(ctx) }()

	client := newTestClient(socketPath)

	resp, err := client.Do(mustRequest(t, http.MethodPut, "http://unix/start", nil))
	if err != nil {
		t.Fatalf("PUT /start: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /start, got %d", resp.StatusCode)
	}

	deadline := time.After(time.Second)
	for runner.State() != adaptor.Start {
		select {
		case <-deadline:
			t.Fatalf("runner never reached Start state, got %v", runner.State())
		default:
			time.Sleep(time.Millisecond)
		}
	}

	hbResp, err := client.Do(mustRequest(t, http.MethodGet, "http://unix/heartbeat", nil))
	if err != nil {
		t.Fatalf("GET /heartbeat: %v", err)
	}
	defer hbResp.Body.Close()
	if hbResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /heartbeat, got %d", hbResp.StatusCode)
	}

	cancel()
	if err := <-serveErr; err != nil {
		t.Fatalf("Serve: %v", err)
	}
}

func mustRequest(t *testing.T, method, url string, body io.Reader) *http.Request {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	return req
}
