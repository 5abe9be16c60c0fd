package background

import (
	"errors"
	"testing"
	"time"
)

func TestWorkerSubmitRunsTaskAsynchronously(t *testing.T) {
	w := NewWorker()
	done := make(chan struct{})

	if err := w.Submit(func() error {
		close(done)
		return nil
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran")
	}
}

func TestWorkerSubmitWhileRunningFails(t *testing.T) {
	w := NewWorker()
	release := make(chan struct{})

	if err := w.Submit(func() error {
		<-release
		return nil
	}); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	w.WaitForStart()

	if err := w.Submit(func() error { return nil }); !errors.Is(err, ErrWorkerBusy) {
		t.Fatalf("expected ErrWorkerBusy, got %v", err)
	}

	close(release)
}

func TestWorkerWaitForStartReturnsOnceTaskRunning(t *testing.T) {
	w := NewWorker()
	started := make(chan struct{})
	release := make(chan struct{})

	if err := w.Submit(func() error {
		close(started)
		<-release
		return nil
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	waitDone := make(chan struct{})
	go func() {
		w.WaitForStart()
		close(waitDone)
	}()

	select {
	case <-waitDone:
	case <-time.After(time.Second):
		t.Fatal("WaitForStart never returned")
	}
	if !w.HasStarted() {
		t.Fatal("expected HasStarted to be true")
	}
	close(release)
}

func TestWorkerBecomesIdleAfterTaskCompletes(t *testing.T) {
	w := NewWorker()
	done := make(chan struct{})

	if err := w.Submit(func() error {
		return nil
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	close(done)

	deadline := time.After(time.Second)
	for w.IsRunning() {
		select {
		case <-deadline:
			t.Fatal("worker never became idle")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestWorkerErrReflectsLastTaskResult(t *testing.T) {
	w := NewWorker()
	wantErr := errors.New("boom")

	if err := w.Submit(func() error { return wantErr }); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	for w.IsRunning() {
		time.Sleep(time.Millisecond)
	}
	if !errors.Is(w.Err(), wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, w.Err())
	}
}
