// Package pipeline drives packets from a source into a container.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"firestige.xyz/kyber/internal/config"
	"firestige.xyz/kyber/internal/core"
	"firestige.xyz/kyber/internal/metrics"
	"firestige.xyz/kyber/internal/muxer"
)

// Source yields packets in submission order and io.EOF at the end.
type Source interface {
	ReadPacket() (core.Packet, error)
}

// Config contains pipeline configuration.
type Config struct {
	Source       Source
	Muxer        muxer.Muxer
	Format       string // metrics label
	OnWriteError string // config.OnWriteErrorAbort (default) or config.OnWriteErrorSkip
	Logger       *slog.Logger
}

// Pipeline is a single-threaded source → container loop.
type Pipeline struct {
	source      Source
	muxer       muxer.Muxer
	format      string
	skipOnError bool
	logger      *slog.Logger
	metrics     *Metrics
}

// New creates a new pipeline.
func New(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		source:      cfg.Source,
		muxer:       cfg.Muxer,
		format:      cfg.Format,
		skipOnError: cfg.OnWriteError == config.OnWriteErrorSkip,
		logger:      logger,
		metrics:     NewMetrics(cfg.Format),
	}
}

// Metrics returns the live counters.
func (p *Pipeline) Metrics() *Metrics { return p.metrics }

// Run validates the container, then writes every packet from the source
// until EOF. Cancellation is checked between packets, never mid-packet.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.muxer.Validate(); err != nil {
		metrics.ValidationFailuresTotal.WithLabelValues(p.format, errorType(err)).Inc()
		return fmt.Errorf("container rejected: %w", err)
	}

	p.logger.Info("pipeline starting", "format", p.format, "skip_on_error", p.skipOnError)

	for {
		select {
		case <-ctx.Done():
			p.logSummary("pipeline cancelled")
			return ctx.Err()
		default:
		}

		pkt, err := p.source.ReadPacket()
		if errors.Is(err, io.EOF) {
			p.logSummary("pipeline finished")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read packet: %w", err)
		}
		seq := p.metrics.Read.Add(1)

		if err := p.muxer.WritePacket(pkt); err != nil {
			p.metrics.WriteErrors.Add(1)
			metrics.WriteErrorsTotal.WithLabelValues(p.format, errorType(err)).Inc()

			if p.skipOnError && skippable(err) {
				p.metrics.Skipped.Add(1)
				p.logger.Warn("packet write failed, skipping",
					"packet", seq, "pts", pkt.PTS, "size", pkt.Size(), "error", err)
				continue
			}
			return fmt.Errorf("failed to write packet %d (pts=%d): %w", seq, pkt.PTS, err)
		}

		n := uint64(muxer.HeaderSize + pkt.Size())
		p.metrics.Written.Add(1)
		p.metrics.Bytes.Add(n)
		metrics.PacketsWrittenTotal.WithLabelValues(p.format).Inc()
		metrics.BytesWrittenTotal.WithLabelValues(p.format).Add(float64(n))
		metrics.PayloadSizeBytes.WithLabelValues(p.format).Observe(float64(pkt.Size()))
	}
}

func (p *Pipeline) logSummary(msg string) {
	s := p.metrics.Snapshot()
	p.logger.Info(msg,
		"format", p.format,
		"read", s.Read,
		"written", s.Written,
		"bytes", s.Bytes,
		"write_errors", s.WriteErrors,
		"skipped", s.Skipped)
}

// skippable reports whether the session may continue past err.
func skippable(err error) bool {
	return errors.Is(err, core.ErrSinkWrite) || errors.Is(err, core.ErrPayloadTooLarge)
}

// errorType maps an error to a metrics label.
func errorType(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidStreamCount):
		return "invalid_stream_count"
	case errors.Is(err, core.ErrWrongStreamType):
		return "wrong_stream_type"
	case errors.Is(err, core.ErrSinkWrite):
		return "sink_write"
	case errors.Is(err, core.ErrPayloadTooLarge):
		return "payload_too_large"
	case errors.Is(err, core.ErrNotValidated):
		return "not_validated"
	default:
		return "other"
	}
}
