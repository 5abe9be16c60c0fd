package background

import (
	"sync"

	"github.com/OpenJobDescription/adaptor-runtime-go/adaptor"
	"github.com/OpenJobDescription/adaptor-runtime-go/logbuffer"
)

// HeartbeatResponse is the body of GET /heartbeat (spec.md §3).
type HeartbeatResponse struct {
	State  adaptor.State            `json:"state"`
	Status adaptor.Status           `json:"status"`
	Output logbuffer.BufferedOutput `json:"output"`
	Failed bool                     `json:"failed"`
}

// Response is a transport-agnostic request outcome: HTTP status + text body
// on POSIX, {status, body} JSON envelope fields on Windows.
type Response struct {
	Status int
	Body   string
}

// shutdownEvent is a level-triggered, idempotently-settable flag shared
// between Server and Router. A single channel closed once serves both
// transports identically (spec.md §9 flags the original's divergent
// queue-vs-event handling on Windows as something not to replicate).
type shutdownEvent struct {
	once sync.Once
	ch   chan struct{}
}

func newShutdownEvent() *shutdownEvent { return &shutdownEvent{ch: make(chan struct{})} }

func (s *shutdownEvent) Set() { s.once.Do(func() { close(s.ch) }) }

func (s *shutdownEvent) Done() <-chan struct{} { return s.ch }

func (s *shutdownEvent) IsSet() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}
