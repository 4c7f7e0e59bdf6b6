package muxer

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/sirupsen/logrus"

	"firestige.xyz/kyber/internal/core"
)

// Muxer is the fixed surface a host drives: validate once, then write
// packets in submission order.
type Muxer interface {
	Validate() error
	WritePacket(pkt core.Packet) error
}

// Container binds a format, its declared streams and a byte sink.
// It is not safe for concurrent use; callers serialize WritePacket.
type Container struct {
	format  Format
	streams []core.Stream
	sink    io.Writer

	logger    *slog.Logger
	packetLog logrus.FieldLogger

	checked     bool
	validateErr error
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger used for validation diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithPacketLog enables the per-packet diagnostic line.
func WithPacketLog(l logrus.FieldLogger) Option {
	return func(c *Container) { c.packetLog = l }
}

// NewContainer creates a container. The stream list is copied and frozen.
func NewContainer(format Format, streams []core.Stream, sink io.Writer, opts ...Option) *Container {
	c := &Container{
		format:  format,
		streams: append([]core.Stream(nil), streams...),
		sink:    sink,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Format returns the container's format descriptor.
func (c *Container) Format() Format { return c.format }

// Streams returns a copy of the declared streams.
func (c *Container) Streams() []core.Stream {
	return append([]core.Stream(nil), c.streams...)
}

// Validate checks the stream list against the format. The check runs once;
// later calls return the first outcome.
func (c *Container) Validate() error {
	if !c.checked {
		c.checked = true
		c.validateErr = c.validate()
	}
	return c.validateErr
}

func (c *Container) validate() error {
	if len(c.streams) != 1 {
		return c.reject(core.ErrInvalidStreamCount, "have exactly one stream",
			"streams", len(c.streams))
	}

	st := c.streams[0]
	if c.format.AudioCodec.IsSet() && st.MediaType != core.MediaTypeAudio {
		return c.reject(core.ErrWrongStreamType, "have exactly one audio stream",
			"media_type", st.MediaType.String())
	}
	if c.format.VideoCodec.IsSet() && st.MediaType != core.MediaTypeVideo {
		return c.reject(core.ErrWrongStreamType, "have exactly one video stream",
			"media_type", st.MediaType.String())
	}

	c.logger.Debug("container validated",
		"format", c.format.Name,
		"media_type", st.MediaType.String(),
		"codec", st.Codec.String())
	return nil
}

func (c *Container) reject(kind error, constraint string, args ...any) error {
	msg := fmt.Sprintf("%s files %s", c.format.Name, constraint)
	c.logger.Error(msg, append([]any{"format", c.format.Name}, args...)...)
	return fmt.Errorf("%w: %s", kind, msg)
}

// WritePacket frames pkt and writes header then payload to the sink.
// A sink failure aborts this packet only; whether to continue is the
// caller's decision.
func (c *Container) WritePacket(pkt core.Packet) error {
	if !c.checked || c.validateErr != nil {
		return core.ErrNotValidated
	}
	return WriteFrame(c.sink, pkt, c.packetLog)
}

// WriteFrame writes one framed packet to w. packetLog may be nil.
func WriteFrame(w io.Writer, pkt core.Packet, packetLog logrus.FieldLogger) error {
	h, err := NewHeader(pkt.PTS, uint64(len(pkt.Data)))
	if err != nil {
		return err
	}
	wire := h.Encode()

	if packetLog != nil {
		packetLog.Info(diagnosticLine(h, wire[:]))
	}

	if err := writeFull(w, wire[:]); err != nil {
		return fmt.Errorf("%w: header: %w", core.ErrSinkWrite, err)
	}
	if err := writeFull(w, pkt.Data); err != nil {
		return fmt.Errorf("%w: payload: %w", core.ErrSinkWrite, err)
	}
	return nil
}

func writeFull(w io.Writer, b []byte) error {
	if len(b) == 0 {
		return nil
	}
	n, err := w.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return io.ErrShortWrite
	}
	return nil
}
