package logbuffer

import (
	"path/filepath"
	"testing"
)

func TestFileChunkReturnsAppendedData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	b, err := NewFile(path, nil)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	b.Buffer(Record{Message: "A\n"})
	b.Buffer(Record{Message: "B\n"})

	chunk := b.Chunk()
	if chunk.Output != "A\nB\n" {
		t.Fatalf("expected %q, got %q", "A\nB\n", chunk.Output)
	}
}

func TestFileClearThenChunkOnlySeesNewData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	b, err := NewFile(path, nil)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	b.Buffer(Record{Message: "A\n"})
	first := b.Chunk()
	if !b.Clear(first.ID) {
		t.Fatal("expected clear to succeed for the id just returned")
	}

	b.Buffer(Record{Message: "B\n"})
	second := b.Chunk()
	if second.Output != "B\n" {
		t.Fatalf("expected only newly buffered data, got %q", second.Output)
	}
}

func TestFileClearIsIdempotentFalseOnSecondCall(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	b, err := NewFile(path, nil)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	b.Buffer(Record{Message: "A\n"})
	chunk := b.Chunk()

	if !b.Clear(chunk.ID) {
		t.Fatal("expected first clear to succeed")
	}
	if b.Clear(chunk.ID) {
		t.Fatal("expected second clear with the same id to report false")
	}
}

func TestFileRepeatedChunkWithoutClearIsStable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	b, err := NewFile(path, nil)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	b.Buffer(Record{Message: "A\n"})
	first := b.Chunk()
	second := b.Chunk()

	if first.Output != second.Output {
		t.Fatalf("expected stable output across repeated chunks without a clear, got %q then %q", first.Output, second.Output)
	}
	if first.ID == second.ID {
		t.Fatal("expected distinct chunk ids per chunk")
	}
}

func TestFileChunkWithNoNewDataIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	b, err := NewFile(path, nil)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	chunk := b.Chunk()
	if chunk.Output != "" {
		t.Fatalf("expected empty output with nothing buffered, got %q", chunk.Output)
	}
}

func TestFileHandlerStripsTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	b, err := NewFile(path, nil)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	h := NewHandler(b)

	n, err := h.Write([]byte("hello\n"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len("hello\n") {
		t.Fatalf("expected Write to report the full input length, got %d", n)
	}

	chunk := b.Chunk()
	if chunk.Output != "hello" {
		t.Fatalf("expected trailing newline stripped before buffering, got %q", chunk.Output)
	}
}
