package adaptor

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// Runner holds the lifecycle state for a single Adaptor and exclusively owns it:
// nothing outside Runner ever calls into the wrapped Adaptor directly. Runner itself
// is synchronous — concurrency (the single-slot worker, cancellation running
// alongside in-flight work) is provided by the background package, not here.
type Runner struct {
	adaptor Adaptor
	logger  *log.Logger

	mu    sync.Mutex
	state State
}

// NewRunner constructs a Runner in the NotStarted state. A nil logger defaults to
// one writing to stderr, matching the teacher's convention of always having a
// usable logger rather than nil-checking at every call site.
func NewRunner(a Adaptor, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &Runner{adaptor: a, logger: logger, state: NotStarted}
}

// State returns the runner's current lifecycle state.
func (r *Runner) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// fail logs a lifecycle failure with the openjd_fail sentinel prefix so that any
// log buffer scanning for it (see logbuffer.FailureRegex) recognizes the failure.
// The state variable is deliberately left at whatever setState set on entry to the
// failing call: spec.md requires "the state variable retains the value set on
// entry" even when the wrapped Adaptor method errors.
func (r *Runner) fail(reason string) {
	r.logger.Printf("%s%s", FailSentinelPrefix, reason)
}

// Start transitions to Start and calls Adaptor.Start.
func (r *Runner) Start() error {
	r.logger.Print("Starting...")
	r.setState(Start)
	if err := r.adaptor.Start(); err != nil {
		r.fail(fmt.Sprintf("Error encountered while starting adaptor: %v", err))
		return err
	}
	return nil
}

// Run transitions to Run and calls Adaptor.Run(runData).
func (r *Runner) Run(runData map[string]any) error {
	r.logger.Print("Running task")
	r.setState(Run)
	if err := r.adaptor.Run(runData); err != nil {
		r.fail(fmt.Sprintf("Error encountered while running adaptor: %v", err))
		return err
	}
	r.logger.Print("Task complete")
	return nil
}

// Stop transitions to Stop and calls Adaptor.Stop.
func (r *Runner) Stop() error {
	r.logger.Print("Stopping...")
	r.setState(Stop)
	if err := r.adaptor.Stop(); err != nil {
		r.fail(fmt.Sprintf("Error encountered while stopping adaptor: %v", err))
		return err
	}
	return nil
}

// Cleanup transitions to Cleanup and calls Adaptor.Cleanup. Callers that need the
// stop-then-cleanup-even-on-failure contract (spec.md §4.4 "/stop wrapper") should
// call Cleanup regardless of Stop's result, as StopAndCleanup does.
func (r *Runner) Cleanup() error {
	r.logger.Print("Cleaning up...")
	r.setState(Cleanup)
	if err := r.adaptor.Cleanup(); err != nil {
		r.fail(fmt.Sprintf("Error encountered while cleaning up adaptor: %v", err))
		return err
	}
	r.logger.Print("Cleanup complete")
	return nil
}

// Cancel transitions to Canceled and calls Adaptor.Cancel. Cancel is reachable from
// any state (spec.md §3) and is terminal for scheduling purposes.
func (r *Runner) Cancel() error {
	r.logger.Print("Canceling...")
	r.setState(Canceled)
	if err := r.adaptor.Cancel(); err != nil {
		r.fail(fmt.Sprintf("Error encountered while canceling the adaptor: %v", err))
		return err
	}
	r.logger.Print("Cancel complete")
	return nil
}

// StopAndCleanup runs Stop then Cleanup, running Cleanup even if Stop fails
// (spec.md §4.4's "/stop wrapper"). It returns Stop's error if both fail, since
// that is the root cause; Cleanup's error is logged but not returned in that case.
func (r *Runner) StopAndCleanup() error {
	stopErr := r.Stop()
	cleanupErr := r.Cleanup()
	if stopErr != nil {
		return stopErr
	}
	return cleanupErr
}

// RunSynchronous drives start -> run -> stop -> cleanup in-process with no IPC at
// all (spec.md §6 "run" mode). On any failure it still attempts cleanup before
// returning the original error, matching original_source's _entrypoint.py "run"
// branch.
func RunSynchronous(a Adaptor, runData map[string]any, logger *log.Logger) error {
	r := NewRunner(a, logger)
	if err := r.Start(); err != nil {
		return cleanupAfterFailure(r, err)
	}
	if err := r.Run(runData); err != nil {
		return cleanupAfterFailure(r, err)
	}
	if err := r.Stop(); err != nil {
		return cleanupAfterFailure(r, err)
	}
	return r.Cleanup()
}

func cleanupAfterFailure(r *Runner, cause error) error {
	if err := r.Cleanup(); err != nil {
		return fmt.Errorf("error running the adaptor: %w (cleanup also failed: %v)", cause, err)
	}
	return fmt.Errorf("error running the adaptor: %w", cause)
}
