package sink

import "io"

// ConsoleSink writes the container to a terminal stream, usually stdout,
// so it can be piped. Close leaves the stream open.
type ConsoleSink struct {
	w io.Writer
}

// NewConsoleSink wraps w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

func (s *ConsoleSink) Write(p []byte) (int, error) { return s.w.Write(p) }

func (s *ConsoleSink) Close() error { return nil }
