package adaptor

// Adaptor is the polymorphic entity the runtime drives through its lifecycle. It
// wraps whatever third-party application the adaptor is responsible for; the
// runtime never looks inside it, per spec.md's OUT OF SCOPE list.
type Adaptor interface {
	// Start performs any one-time setup needed before the first Run call.
	Start() error
	// Run executes a single unit of work described by runData. Adaptors that
	// process multiple tasks (e.g. one per rendered frame) are called once per
	// task; runData is re-marshaled JSON and is opaque to the runner.
	Run(runData map[string]any) error
	// Stop tears down per-run state after the last Run call.
	Stop() error
	// Cleanup releases any resources acquired by Start, run unconditionally even
	// if Stop fails.
	Cleanup() error
	// Cancel asks an in-flight lifecycle method to return promptly. The runtime
	// never forcibly aborts the goroutine running it; Cancel is advisory and the
	// Adaptor implementation is expected to observe it on its own.
	Cancel() error
}

// BaseAdaptor is an embeddable no-op implementation of Adaptor. Concrete adaptors
// that only care about Run can embed this and override just that method, mirroring
// the original Python runtime's Adaptor base class (on_start/on_stop/on_cleanup
// default to no-ops; on_run is the only one callers must supply).
type BaseAdaptor struct{}

func (BaseAdaptor) Start() error                     { return nil }
func (BaseAdaptor) Run(runData map[string]any) error { return nil }
func (BaseAdaptor) Stop() error                      { return nil }
func (BaseAdaptor) Cleanup() error                   { return nil }
func (BaseAdaptor) Cancel() error                    { return nil }
