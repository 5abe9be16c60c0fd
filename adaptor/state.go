// Package adaptor implements the adaptor lifecycle state machine: the synchronous
// runner that drives a user-supplied Adaptor through start/run/stop/cleanup/cancel.
package adaptor

// State is the lifecycle state of an adaptor, as tracked by Runner.
type State string

const (
	NotStarted State = "not_started"
	Start      State = "start"
	Run        State = "run"
	Stop       State = "stop"
	Cleanup    State = "cleanup"
	Canceled   State = "canceled"
)

// Status reflects whether the runner's worker slot currently holds running work.
// It is orthogonal to State: a Runner has no notion of "busy" on its own (that is
// the background server's worker slot, see the background package) but exposes
// this type so callers that embed a Runner without a server can report it too.
type Status string

const (
	Idle    Status = "idle"
	Working Status = "working"
)

// FailSentinelPrefix is prepended to the log line emitted when a lifecycle method
// fails, so that any consumer scanning log output (including the log buffer's
// failure regex, see logbuffer.FailureRegex) can recognize it.
const FailSentinelPrefix = "openjd_fail: "
