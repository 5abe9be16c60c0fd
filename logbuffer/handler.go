package logbuffer

// Handler adapts a Buffer to the log.Writer-shaped sink the runtime and adaptor
// loggers write through in daemon mode. cmd/sampleadaptor installs it next to
// stderr via io.MultiWriter; the backend's stderr is discarded by the frontend
// that spawns it, so the buffer is the only path to the frontend (spec.md §4.2).
type Handler struct {
	buffer Buffer
}

// NewHandler wraps buffer as an io.Writer-compatible sink.
func NewHandler(buffer Buffer) *Handler {
	return &Handler{buffer: buffer}
}

// Write implements io.Writer by buffering p as a single Record. log.Logger calls
// Write once per formatted line (including the trailing newline it appends), so
// callers typically construct the Handler's owning logger with log.Lmsgprefix-free
// flags and trim the newline here to avoid doubling line breaks when Memory joins
// records with "\n".
func (h *Handler) Write(p []byte) (int, error) {
	msg := string(p)
	if n := len(msg); n > 0 && msg[n-1] == '\n' {
		msg = msg[:n-1]
	}
	h.buffer.Buffer(Record{Message: msg})
	return len(p), nil
}
