// Package background implements C4 (request router) and C5 (background
// server): the side of the adaptor runtime that runs inside the backend
// process, owns the adaptor runner and log buffer, and answers the six
// endpoints described in spec.md §4.4/§4.5.
package background

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/OpenJobDescription/adaptor-runtime-go/adaptor"
	"github.com/OpenJobDescription/adaptor-runtime-go/logbuffer"
	"github.com/OpenJobDescription/adaptor-runtime-go/transport"
)

// Server owns C5: the transport listener, the request router, and the
// shutdown event, and drives the accept loop for whichever backend the
// listener was constructed with.
type Server struct {
	listener transport.Listener
	router   *Router
	shutdown *shutdownEvent
	logger   *log.Logger

	wg sync.WaitGroup
}

// NewServer constructs a Server around an already-listening transport.Listener.
// buffer may be nil (spec.md §4.4 heartbeat handles a missing buffer by
// always reporting the EMPTY sentinel).
func NewServer(listener transport.Listener, runner *adaptor.Runner, buffer logbuffer.Buffer, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	shutdown := newShutdownEvent()
	return &Server{
		listener: listener,
		shutdown: shutdown,
		logger:   logger,
		router: &Router{
			runner:   runner,
			buffer:   buffer,
			worker:   NewWorker(),
			shutdown: shutdown,
			logger:   logger,
		},
	}
}

// Serve blocks, accepting and handling connections until Stop is called or
// ctx is canceled, per spec.md §4.5's serve_forever loop.
func (s *Server) Serve(ctx context.Context) error {
	auth := &authListener{Listener: s.listener}

	go func() {
		select {
		case <-s.shutdown.Done():
		case <-ctx.Done():
		}
		// Unblocks a listener parked in Accept, the self-connect trick
		// spec.md §4.5 describes, achieved here simply by closing the
		// listener outright rather than dialing it.
		_ = s.listener.Close()
	}()

	if s.listener.Backend() == transport.BackendNamedPipe {
		return s.serveEnvelopes(auth)
	}
	return s.serveHTTP(auth)
}

func (s *Server) serveHTTP(ln net.Listener) error {
	httpServer := &http.Server{
		Handler:  http.HandlerFunc(s.handleHTTP),
		ErrorLog: s.logger,
	}
	go func() {
		<-s.shutdown.Done()
		_ = httpServer.Close()
	}()
	err := httpServer.Serve(ln)
	if err != nil && (errors.Is(err, http.ErrServerClosed) || errors.Is(err, net.ErrClosed)) {
		return nil
	}
	return err
}

func (s *Server) handleHTTP(w http.ResponseWriter, req *http.Request) {
	s.wg.Add(1)
	defer s.wg.Done()

	body, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	resp := s.router.Route(req.Method, req.URL.Path, body, req.URL.Query())
	w.WriteHeader(resp.Status)
	_, _ = w.Write([]byte(resp.Body))
}

func (s *Server) serveEnvelopes(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.shutdown.IsSet() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleEnvelope(conn)
		}()
	}
}

// envelopeRequest/envelopeResponse frame one request per connection over the
// Windows named-pipe backend, per spec.md §3's "Request envelope (on-pipe)".
type envelopeRequest struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Body   string `json:"body,omitempty"`
	Params string `json:"params,omitempty"`
}

type envelopeResponse struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

func (s *Server) handleEnvelope(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	var req envelopeRequest
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		writeEnvelope(conn, envelopeResponse{Status: http.StatusInternalServerError, Body: err.Error()})
		return
	}

	query := url.Values{}
	if req.Params != "" {
		var params map[string]string
		if err := json.Unmarshal([]byte(req.Params), &params); err == nil {
			for k, v := range params {
				query.Set(k, v)
			}
		}
	}

	resp := s.router.Route(req.Method, req.Path, []byte(req.Body), query)
	writeEnvelope(conn, envelopeResponse{Status: resp.Status, Body: resp.Body})
}

func writeEnvelope(conn net.Conn, resp envelopeResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	_, _ = conn.Write(data)
}

// authListener authenticates each accepted connection before handing it to
// the HTTP server or envelope loop, writing a framed 401 itself when
// rejecting one instead of silently dropping it, per spec.md §4.5 handler
// step 1 ("On failure, send 401 and close").
type authListener struct {
	transport.Listener
}

func (l *authListener) Accept() (net.Conn, error) {
	for {
		conn, err := l.Listener.Accept()
		if err != nil {
			return nil, err
		}
		if err := transport.Authenticate(conn); err != nil {
			writeUnauthorized(conn, l.Listener.Backend())
			_ = conn.Close()
			continue
		}
		return conn, nil
	}
}

func writeUnauthorized(conn net.Conn, backend transport.Backend) {
	if backend == transport.BackendNamedPipe {
		writeEnvelope(conn, envelopeResponse{Status: http.StatusUnauthorized, Body: "unauthorized"})
		return
	}
	_, _ = conn.Write([]byte("HTTP/1.1 401 Unauthorized\r\nContent-Length: 0\r\n\r\n"))
}

// Stop sets the shutdown event, closes the listener to unblock a pending
// Accept, and waits up to timeout for in-flight handlers to drain. Unlike the
// original's unconditional one-second sleep (spec.md §9 flags this as a
// likely bug), this returns as soon as every handler has actually finished.
func (s *Server) Stop(timeout time.Duration) error {
	s.shutdown.Set()
	_ = s.listener.Close()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("background: timed out after %s waiting for in-flight connections to finish", timeout)
	}
}
