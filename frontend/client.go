// Package frontend implements C6: spawning the backend process, discovering
// its connection file, and driving the lifecycle verbs plus the
// heartbeat-until-state-complete polling loop described in spec.md §4.6.
package frontend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/OpenJobDescription/adaptor-runtime-go/adaptor"
	"github.com/OpenJobDescription/adaptor-runtime-go/background"
	"github.com/OpenJobDescription/adaptor-runtime-go/logbuffer"
	"github.com/OpenJobDescription/adaptor-runtime-go/rendezvous"
)

// AdaptorFailedError is raised when the backend reports a failed lifecycle
// step during a heartbeat poll (spec.md §4.6).
type AdaptorFailedError struct {
	Message string
}

func (e *AdaptorFailedError) Error() string { return e.Message }

// HTTPError wraps a 4xx or 5xx response from the backend (spec.md §4.6).
type HTTPError struct {
	Status int
	Reason string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("received unexpected HTTP status code %d: %s", e.Status, e.Reason)
}

// Options configures a Client.
type Options struct {
	ConnectionFilePath string
	Timeout            time.Duration // per-request timeout, defaults to 5s
	HeartbeatInterval  time.Duration // defaults to 1s
	// AdaptorOutputWriter receives every line of replayed adaptor output
	// (SPEC_FULL.md §4's ConditionalFormatter-derived behavior), separate
	// from Logger, which only carries the client's own status lines.
	AdaptorOutputWriter io.Writer
	Logger              *log.Logger
}

// Client is the frontend half of the adaptor runtime (C6): it spawns the
// backend, confirms liveness, and issues the six verbs.
type Client struct {
	connectionFilePath  string
	timeout             time.Duration
	heartbeatInterval   time.Duration
	adaptorOutputWriter io.Writer
	logger              *log.Logger

	sender   requestSender
	endpoint string

	mu       sync.Mutex
	canceled bool
	cancelCh chan struct{}
}

// NewClient constructs a Client. Signal handling (SIGINT/SIGTERM -> Cancel)
// is installed by InstallSignalHandler, not here, matching the original's
// note that skipping signal setup is safe when not on the main goroutine.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	interval := opts.HeartbeatInterval
	if interval == 0 {
		interval = time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	outputWriter := opts.AdaptorOutputWriter
	if outputWriter == nil {
		outputWriter = os.Stdout
	}
	return &Client{
		connectionFilePath:  opts.ConnectionFilePath,
		timeout:             timeout,
		heartbeatInterval:   interval,
		adaptorOutputWriter: outputWriter,
		logger:              logger,
		cancelCh:            make(chan struct{}),
	}
}

// InstallSignalHandler arms SIGINT/SIGTERM to call Cancel, per spec.md §4.6.
// Returns a function that disarms the handler.
func (c *Client) InstallSignalHandler() func() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			c.logger.Print("interruption signal received")
			if err := c.Cancel(); err != nil {
				c.logger.Printf("failed to cancel: %v", err)
			}
		case <-done:
		}
	}()
	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}

// Init spawns the backend process and verifies it is reachable. reentryExe,
// when non-empty, is used as the child's argv[0] in place of a dynamically
// discovered interpreter/module invocation (SPEC_FULL.md / spec.md §9's
// REDESIGN FLAGS call for an explicit reentry executable instead of dynamic
// module introspection); when empty, the current executable is used.
// extraArgs are appended verbatim.
func (c *Client) Init(ctx context.Context, reentryExe string, extraArgs []string) error {
	if _, err := os.Stat(c.connectionFilePath); err == nil {
		return fmt.Errorf("cannot init a new backend process with an existing connection file at: %s", c.connectionFilePath)
	}
	if reentryExe == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to resolve the current executable: %w", err)
		}
		reentryExe = exe
	}

	args := append([]string{"daemon", "_serve", "--connection-file", c.connectionFilePath}, extraArgs...)
	cmd := exec.Command(reentryExe, args...)
	cmd.Stdin = nil
	devNull, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	cmd.Stdout = devNull
	cmd.Stderr = devNull
	setNewSession(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to initialize backend process: %w", err)
	}
	c.logger.Printf("started backend process, pid %d", cmd.Process.Pid)

	if err := waitForFile(ctx, c.connectionFilePath, fileReadyTimeout()); err != nil {
		return fmt.Errorf("backend process failed to write connection file in time at %s: %w", c.connectionFilePath, err)
	}

	if err := c.Attach(); err != nil {
		return err
	}

	c.logger.Print("verifying connection to backend...")
	if _, err := c.heartbeat(ctx, ""); err != nil {
		return err
	}
	c.logger.Print("connected successfully")
	return nil
}

// Attach loads an already-running backend's connection settings without
// spawning a new process, for callers that expect a prior Init call (in this
// process or another) to have already started the backend — grounded on the
// original's lazily-loaded `connection_settings` property, which every
// frontend call re-resolves from the connection file rather than requiring
// an explicit handshake.
func (c *Client) Attach() error {
	settings, err := rendezvous.Load(c.connectionFilePath)
	if err != nil {
		return err
	}
	c.endpoint = settings.Endpoint
	c.sender = newRequestSender(c.endpoint, c.timeout)
	return nil
}

// Start issues PUT /start and waits for the backend to reach adaptor.Start.
func (c *Client) Start(ctx context.Context) error {
	if err := c.sendRequest(ctx, http.MethodPut, "/start", nil, nil); err != nil {
		return err
	}
	return c.heartbeatUntilStateComplete(ctx, adaptor.Start)
}

// Run issues PUT /run with runData and waits for adaptor.Run to complete.
func (c *Client) Run(ctx context.Context, runData map[string]any) error {
	if err := c.sendRequest(ctx, http.MethodPut, "/run", nil, runData); err != nil {
		return err
	}
	return c.heartbeatUntilStateComplete(ctx, adaptor.Run)
}

// Stop issues PUT /stop and waits until the backend has progressed through
// Cleanup, since the backend runs stop+cleanup as a single submitted task.
func (c *Client) Stop(ctx context.Context) error {
	if err := c.sendRequest(ctx, http.MethodPut, "/stop", nil, nil); err != nil {
		return err
	}
	return c.heartbeatUntilStateComplete(ctx, adaptor.Cleanup)
}

// Shutdown issues PUT /shutdown.
func (c *Client) Shutdown(ctx context.Context) error {
	return c.sendRequest(ctx, http.MethodPut, "/shutdown", nil, nil)
}

// Cancel issues PUT /cancel and marks the client as canceled, which shortens
// the heartbeat poll interval while a lifecycle call is in flight.
func (c *Client) Cancel() error {
	c.mu.Lock()
	c.canceled = true
	c.mu.Unlock()
	close(c.cancelCh)
	return c.sendRequest(context.Background(), http.MethodPut, "/cancel", nil, nil)
}

func (c *Client) isCanceled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canceled
}

// heartbeatUntilStateComplete is the frontend's main polling loop
// (spec.md §4.6), replaying buffered adaptor output line by line and
// surfacing a reported failure once the target state is reached and idle.
func (c *Client) heartbeatUntilStateComplete(ctx context.Context, target adaptor.State) error {
	var failureMessage string
	ackID := ""

	for {
		hb, err := c.heartbeat(ctx, ackID)
		if err != nil {
			return err
		}
		for _, line := range strings.Split(hb.Output.Output, "\n") {
			if line == "" {
				continue
			}
			fmt.Fprintln(c.adaptorOutputWriter, line)
		}
		if hb.Failed {
			failureMessage = hb.Output.Output
		}
		ackID = hb.Output.ID

		if (hb.State == target || hb.State == adaptor.Canceled) && hb.Status == adaptor.Idle {
			break
		}

		if c.isCanceled() {
			time.Sleep(250 * time.Millisecond)
		} else {
			select {
			case <-c.cancelCh:
			case <-time.After(c.heartbeatInterval):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	if ackID != logbuffer.Empty {
		if _, err := c.heartbeat(ctx, ackID); err != nil {
			return err
		}
	}

	if failureMessage != "" {
		return &AdaptorFailedError{Message: failureMessage}
	}
	return nil
}

func (c *Client) heartbeat(ctx context.Context, ackID string) (background.HeartbeatResponse, error) {
	var query url.Values
	if ackID != "" {
		query = url.Values{"ack_id": []string{ackID}}
	}
	body, err := c.sendRequestBody(ctx, http.MethodGet, "/heartbeat", query, nil)
	if err != nil {
		return background.HeartbeatResponse{}, err
	}
	var hb background.HeartbeatResponse
	if err := json.Unmarshal(body, &hb); err != nil {
		return background.HeartbeatResponse{}, fmt.Errorf("failed to decode heartbeat response: %w", err)
	}
	return hb, nil
}

func (c *Client) sendRequest(ctx context.Context, method, path string, query url.Values, jsonBody map[string]any) error {
	_, err := c.sendRequestBody(ctx, method, path, query, jsonBody)
	return err
}

func (c *Client) sendRequestBody(ctx context.Context, method, path string, query url.Values, jsonBody map[string]any) ([]byte, error) {
	var body []byte
	if jsonBody != nil {
		data, err := json.Marshal(jsonBody)
		if err != nil {
			return nil, err
		}
		body = data
	}
	data, status, err := c.sender.send(ctx, method, path, query, body)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s request: %w", path, err)
	}
	if status >= 400 {
		return nil, &HTTPError{Status: status, Reason: string(data)}
	}
	return data, nil
}
