package log

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// PacketLogger is the diagnostic logger handed to the container.
// Close releases the output when it is a file.
type PacketLogger struct {
	*logrus.Logger
	closer io.Closer
}

// NewPacketLogger builds a logger for per-packet diagnostic lines.
// output is "stderr", "stdout" or a file path (appended to).
func NewPacketLogger(output string) (*PacketLogger, error) {
	var (
		w      io.Writer
		closer io.Closer
	)

	switch output {
	case "", "stderr":
		w = os.Stderr
	case "stdout":
		w = os.Stdout
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open diagnostics output %s: %w", output, err)
		}
		w, closer = f, f
	}

	return &PacketLogger{Logger: newPatternLogger(w, DefaultPacketPattern), closer: closer}, nil
}

func newPatternLogger(w io.Writer, pattern string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&formatter{pattern: pattern, time: time.RFC3339Nano})
	return l
}

// Close closes the underlying file, if any.
func (p *PacketLogger) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer.Close()
}
