// Package logbuffer implements the thread-safe, append-only, chunked log buffer
// described in spec.md §4.2: buffer() never drops a record, chunk() returns
// everything buffered since the last successful ACK, and clear() truncates the
// pending chunk only if its id still matches.
package logbuffer

import (
	"crypto/rand"
	"regexp"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Empty is the sentinel BufferedOutput.ID meaning "no data buffered yet".
const Empty = "EMPTY"

// FailureRegex matches the adaptor failure sentinel line described in spec.md §3:
// "^(?:\w+: )?openjd_fail: " with multiline semantics (matched per-line against a
// chunk's, possibly multi-line, Output).
var FailureRegex = regexp.MustCompile(`(?m)^(?:\w+: )?openjd_fail: `)

// Record is a single line of log output buffered by a LogBuffer. Formatter, if
// non-nil, is applied by the buffer when it formats the record into a chunk;
// otherwise Message is used as-is.
type Record struct {
	Message string
}

// BufferedOutput is a chunk of buffered log output, identified by a fresh,
// per-server-unique ID each time Chunk is called.
type BufferedOutput struct {
	ID     string `json:"id"`
	Output string `json:"output"`
}

// Buffer is the contract every log buffer implementation satisfies.
type Buffer interface {
	// Buffer stores r for inclusion in a future chunk. Never drops r before it
	// has appeared in some value returned by Chunk (spec.md §8 invariant 1).
	Buffer(r Record)
	// Chunk returns everything buffered since the last successful Clear, as a
	// freshly identified BufferedOutput, and retains it as the pending chunk.
	// Calling Chunk twice without an intervening Clear yields a second chunk
	// whose Output includes the first chunk's Output (spec.md §8 invariant 2).
	Chunk() BufferedOutput
	// Clear truncates the pending chunk if id matches it, returning true. A
	// stale or unknown id returns false and is a no-op (spec.md §8 invariant 3).
	Clear(id string) bool
}

// idSource yields monotonically increasing, collision-free chunk IDs. ULID gives
// us a lexically sortable, timestamp-prefixed 26-char ID; using a locked
// monotonic entropy source (per oklog/ulid's own recommendation) guarantees two
// IDs minted within the same millisecond still differ and still sort correctly,
// which a bare microsecond timestamp (spec.md §3's minimum suggestion) cannot
// promise on a platform with coarse clock resolution.
type idSource struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newIDSource() *idSource {
	return &idSource{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (s *idSource) next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}
