package sink

import (
	"fmt"
	"os"

	"firestige.xyz/kyber/internal/core"
)

// FileOptions configures the file sink.
type FileOptions struct {
	Path   string `mapstructure:"path"`
	Append bool   `mapstructure:"append"` // default truncates
	Sync   bool   `mapstructure:"sync"`   // fsync before close
}

// FileSink writes the container straight to a file.
type FileSink struct {
	f    *os.File
	sync bool
}

// NewFileSink opens (or creates) the output file.
func NewFileSink(opts FileOptions) (*FileSink, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("%w: file sink requires 'path'", core.ErrConfigInvalid)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if opts.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(opts.Path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output %s: %w", opts.Path, err)
	}
	return &FileSink{f: f, sync: opts.Sync}, nil
}

func (s *FileSink) Write(p []byte) (int, error) { return s.f.Write(p) }

// Close syncs (if configured) and closes the file.
func (s *FileSink) Close() error {
	if s.sync {
		if err := s.f.Sync(); err != nil {
			s.f.Close()
			return fmt.Errorf("failed to sync output: %w", err)
		}
	}
	return s.f.Close()
}
