//go:build unix

package transport

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestListenDialRoundTrip(t *testing.T) {
	endpoint := filepath.Join(t.TempDir(), "adaptor.sock")
	ln, err := Listen(endpoint)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer ln.Close()

	if ln.Backend() != BackendUnix {
		t.Fatalf("expected BackendUnix, got %v", ln.Backend())
	}

	serverDone := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			serverDone <- err
			return
		}
		defer conn.Close()
		if err := Authenticate(conn); err != nil {
			serverDone <- err
			return
		}
		buf := make([]byte, 5)
		if _, err := conn.Read(buf); err != nil {
			serverDone <- err
			return
		}
		if string(buf) != "hello" {
			serverDone <- errNotEqual(string(buf), "hello")
			return
		}
		serverDone <- nil
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	conn, err := Dial(ctx, endpoint, time.Second)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if err := <-serverDone; err != nil {
		t.Fatalf("server side: %v", err)
	}
}

func TestDialTimesOutAgainstNonexistentEndpoint(t *testing.T) {
	endpoint := filepath.Join(t.TempDir(), "never-listened.sock")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := Dial(ctx, endpoint, 80*time.Millisecond)
	if err == nil {
		t.Fatal("expected Dial to fail against an endpoint with no listener")
	}
	if _, ok := err.(*ConnectTimeoutError); !ok {
		t.Fatalf("expected *ConnectTimeoutError, got %T: %v", err, err)
	}
}

func errNotEqual(got, want string) error {
	return &mismatchError{got: got, want: want}
}

type mismatchError struct{ got, want string }

func (e *mismatchError) Error() string {
	return "got " + e.got + ", want " + e.want
}
