package background

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"

	"github.com/OpenJobDescription/adaptor-runtime-go/adaptor"
	"github.com/OpenJobDescription/adaptor-runtime-go/logbuffer"
)

// routeVerbs maps each known path to its allowed verb, letting Route tell an
// unknown path (404) apart from a known path used with the wrong verb (405),
// per spec.md §4.4. Using a literal map here instead of discovering handlers
// via reflection/class scanning is the static dispatch table spec.md's
// REDESIGN FLAGS calls for in place of the original's dynamic routing.
var routeVerbs = map[string]string{
	"/start":     http.MethodPut,
	"/run":       http.MethodPut,
	"/stop":      http.MethodPut,
	"/cancel":    http.MethodPut,
	"/heartbeat": http.MethodGet,
	"/shutdown":  http.MethodPut,
}

// Router implements C4: the six endpoints, dispatched against C3's runner
// (adaptor.Runner), C2's buffer, and the single worker slot.
type Router struct {
	runner   *adaptor.Runner
	buffer   logbuffer.Buffer // nil means "no buffer installed"
	worker   *Worker
	shutdown *shutdownEvent
	logger   *log.Logger
}

// Route dispatches one request envelope and returns its response.
func (r *Router) Route(method, path string, body []byte, query url.Values) Response {
	verb, known := routeVerbs[path]
	if !known {
		return Response{Status: http.StatusNotFound, Body: "not found"}
	}
	if method != verb {
		return Response{Status: http.StatusMethodNotAllowed, Body: "method not allowed"}
	}

	switch path {
	case "/start":
		return r.handleStart()
	case "/run":
		return r.handleRun(body)
	case "/stop":
		return r.handleStop()
	case "/cancel":
		return r.handleCancel()
	case "/heartbeat":
		return r.handleHeartbeat(query)
	case "/shutdown":
		return r.handleShutdown()
	default:
		return Response{Status: http.StatusNotFound, Body: "not found"}
	}
}

// submitAndRespond implements the "work submission invariant" from spec.md
// §4.4: 400 if the worker is already busy, else submit and block until the
// task has observably started before replying 200.
func (r *Router) submitAndRespond(fn func() error) Response {
	if r.worker.IsRunning() {
		return Response{Status: http.StatusBadRequest, Body: "a task is already running"}
	}
	if err := r.worker.Submit(fn); err != nil {
		return Response{Status: http.StatusInternalServerError, Body: err.Error()}
	}
	r.worker.WaitForStart()
	return Response{Status: http.StatusOK}
}

func (r *Router) handleStart() Response {
	return r.submitAndRespond(r.runner.Start)
}

func (r *Router) handleRun(body []byte) Response {
	runData := map[string]any{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &runData); err != nil {
			return Response{Status: http.StatusBadRequest, Body: err.Error()}
		}
	}
	return r.submitAndRespond(func() error { return r.runner.Run(runData) })
}

func (r *Router) handleStop() Response {
	return r.submitAndRespond(r.runner.StopAndCleanup)
}

// handleCancel implements spec.md §4.4's conditional cancel: a no-op 200 if
// the worker is idle or the runner isn't in a cancelable state, otherwise the
// cancel runs on a fresh, independent Worker so it executes concurrently with
// whatever it's meant to interrupt.
func (r *Router) handleCancel() Response {
	if !(r.worker.IsRunning() && isCancelable(r.runner.State())) {
		return Response{Status: http.StatusOK, Body: "No action required"}
	}
	fresh := NewWorker()
	if err := fresh.Submit(r.runner.Cancel); err != nil {
		return Response{Status: http.StatusInternalServerError, Body: err.Error()}
	}
	fresh.WaitForStart()
	return Response{Status: http.StatusOK}
}

func isCancelable(state adaptor.State) bool {
	return state == adaptor.Start || state == adaptor.Run
}

func (r *Router) handleHeartbeat(query url.Values) Response {
	failed := false
	var output logbuffer.BufferedOutput
	if r.buffer == nil {
		output = logbuffer.BufferedOutput{ID: logbuffer.Empty}
	} else {
		if ackID := query.Get("ack_id"); ackID != "" {
			if r.buffer.Clear(ackID) {
				r.logger.Printf("received ACK for chunk: %s", ackID)
			} else {
				r.logger.Printf("WARNING received ACK for old or invalid chunk: %s", ackID)
			}
		}
		output = r.buffer.Chunk()
		if logbuffer.FailureRegex.MatchString(output.Output) {
			failed = true
		}
	}

	status := adaptor.Idle
	if r.worker.IsRunning() {
		status = adaptor.Working
	}

	data, err := json.Marshal(HeartbeatResponse{
		State:  r.runner.State(),
		Status: status,
		Output: output,
		Failed: failed,
	})
	if err != nil {
		return Response{Status: http.StatusInternalServerError, Body: err.Error()}
	}
	return Response{Status: http.StatusOK, Body: string(data)}
}

func (r *Router) handleShutdown() Response {
	r.shutdown.Set()
	return Response{Status: http.StatusOK}
}
