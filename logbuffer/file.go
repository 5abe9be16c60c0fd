package logbuffer

import (
	"os"
	"sync"
)

// fileChunk tracks the byte range of the current unacked chunk within the
// backing file, mirroring original_source's _FileChunk dataclass.
type fileChunk struct {
	id         string
	hasPending bool
	start      int64
	end        int64
}

// File is a file-backed LogBuffer. Records are appended to a single file opened
// in append-only mode; Chunk reads the byte range [start, EOF) and Clear advances
// start to the previously recorded end, per spec.md §4.2 "File-backed".
type File struct {
	path      string
	formatter Formatter
	ids       *idSource

	fileMu sync.Mutex

	chunkMu sync.Mutex
	chunk   fileChunk
}

// NewFile constructs a file-backed log buffer backed by the file at path. The
// file is created if it doesn't already exist.
func NewFile(path string, formatter Formatter) (*File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}
	_ = f.Close()
	return &File{path: path, formatter: formatter, ids: newIDSource()}, nil
}

func (b *File) format(r Record) string {
	if b.formatter != nil {
		return b.formatter(r)
	}
	return r.Message
}

// Buffer appends r's formatted text to the backing file.
func (b *File) Buffer(r Record) {
	b.fileMu.Lock()
	defer b.fileMu.Unlock()

	f, err := os.OpenFile(b.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()
	_, _ = f.WriteString(b.format(r))
}

// Chunk seeks to the pending chunk's start offset, reads to EOF, and returns
// that range as a freshly identified BufferedOutput.
func (b *File) Chunk() BufferedOutput {
	id := b.ids.next()

	b.chunkMu.Lock()
	defer b.chunkMu.Unlock()

	b.fileMu.Lock()
	defer b.fileMu.Unlock()

	f, err := os.Open(b.path)
	if err != nil {
		return BufferedOutput{ID: id, Output: ""}
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Seek(b.chunk.start, 0); err != nil {
		return BufferedOutput{ID: id, Output: ""}
	}
	data, err := readAll(f)
	if err != nil {
		return BufferedOutput{ID: id, Output: ""}
	}
	end, err := f.Seek(0, 1)
	if err == nil {
		b.chunk.end = end
	}
	b.chunk.id = id
	b.chunk.hasPending = true

	return BufferedOutput{ID: id, Output: string(data)}
}

// Clear advances the pending chunk's start to its end iff id matches.
func (b *File) Clear(id string) bool {
	b.chunkMu.Lock()
	defer b.chunkMu.Unlock()

	if b.chunk.hasPending && b.chunk.id == id {
		b.chunk.start = b.chunk.end
		b.chunk.hasPending = false
		return true
	}
	return false
}

func readAll(f *os.File) ([]byte, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	cur, err := f.Seek(0, 1)
	if err != nil {
		return nil, err
	}
	remaining := info.Size() - cur
	if remaining < 0 {
		remaining = 0
	}
	buf := make([]byte, remaining)
	n, err := f.Read(buf)
	if err != nil && n == 0 && remaining > 0 {
		return nil, err
	}
	return buf[:n], nil
}
