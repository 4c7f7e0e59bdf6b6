package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"firestige.xyz/kyber/internal/config"
	"firestige.xyz/kyber/internal/core"
	"firestige.xyz/kyber/internal/muxer"
)

// sliceSource replays a fixed packet list.
type sliceSource struct {
	pkts []core.Packet
	err  error // returned instead of EOF once pkts are drained
}

func (s *sliceSource) ReadPacket() (core.Packet, error) {
	if len(s.pkts) == 0 {
		if s.err != nil {
			return core.Packet{}, s.err
		}
		return core.Packet{}, io.EOF
	}
	p := s.pkts[0]
	s.pkts = s.pkts[1:]
	return p, nil
}

// MockMuxer is a testify mock of muxer.Muxer.
type MockMuxer struct {
	mock.Mock
}

func (m *MockMuxer) Validate() error {
	return m.Called().Error(0)
}

func (m *MockMuxer) WritePacket(pkt core.Packet) error {
	return m.Called(pkt).Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func videoContainer(sink io.Writer) *muxer.Container {
	return muxer.NewContainer(muxer.Kyber,
		[]core.Stream{{MediaType: core.MediaTypeVideo, Codec: core.CodecH264}},
		sink, muxer.WithLogger(testLogger()))
}

func TestRun_WritesAllPackets(t *testing.T) {
	pkts := []core.Packet{
		{PTS: 0, Data: []byte{1, 2, 3}},
		{PTS: 3000, Data: nil},
		{PTS: 6000, Data: []byte{4}},
	}
	var out bytes.Buffer
	p := New(Config{
		Source: &sliceSource{pkts: append([]core.Packet(nil), pkts...)},
		Muxer:  videoContainer(&out),
		Format: "kyber",
		Logger: testLogger(),
	})

	require.NoError(t, p.Run(context.Background()))

	var want bytes.Buffer
	for _, pkt := range pkts {
		require.NoError(t, muxer.WriteFrame(&want, pkt, nil))
	}
	assert.Equal(t, want.Bytes(), out.Bytes())

	s := p.Metrics().Snapshot()
	assert.Equal(t, Stats{Read: 3, Written: 3, Bytes: uint64(3*muxer.HeaderSize + 4)}, s)
}

func TestRun_ValidationFailureWritesNothing(t *testing.T) {
	var out bytes.Buffer
	c := muxer.NewContainer(muxer.Kyber,
		[]core.Stream{{MediaType: core.MediaTypeAudio, Codec: core.CodecAAC}},
		&out, muxer.WithLogger(testLogger()))

	src := &sliceSource{pkts: []core.Packet{{PTS: 1, Data: []byte{1}}}}
	p := New(Config{Source: src, Muxer: c, Format: "kyber", Logger: testLogger()})

	err := p.Run(context.Background())
	assert.ErrorIs(t, err, core.ErrWrongStreamType)
	assert.Zero(t, out.Len())
	assert.Len(t, src.pkts, 1, "source must not be read")
}

func TestRun_AbortOnWriteError(t *testing.T) {
	m := new(MockMuxer)
	m.On("Validate").Return(nil)
	m.On("WritePacket", core.Packet{PTS: 1}).Return(nil)
	m.On("WritePacket", core.Packet{PTS: 2}).Return(fmt.Errorf("%w: payload: boom", core.ErrSinkWrite))

	src := &sliceSource{pkts: []core.Packet{{PTS: 1}, {PTS: 2}, {PTS: 3}}}
	p := New(Config{Source: src, Muxer: m, Format: "kyber", Logger: testLogger()})

	err := p.Run(context.Background())
	assert.ErrorIs(t, err, core.ErrSinkWrite)
	assert.Len(t, src.pkts, 1, "packet 3 must not be attempted")
	m.AssertExpectations(t)
	m.AssertNumberOfCalls(t, "WritePacket", 2)

	s := p.Metrics().Snapshot()
	assert.Equal(t, uint64(1), s.Written)
	assert.Equal(t, uint64(1), s.WriteErrors)
	assert.Zero(t, s.Skipped)
}

func TestRun_SkipOnWriteError(t *testing.T) {
	m := new(MockMuxer)
	m.On("Validate").Return(nil)
	m.On("WritePacket", core.Packet{PTS: 1}).Return(fmt.Errorf("%w: header: boom", core.ErrSinkWrite))
	m.On("WritePacket", core.Packet{PTS: 2}).Return(core.ErrPayloadTooLarge)
	m.On("WritePacket", core.Packet{PTS: 3}).Return(nil)

	src := &sliceSource{pkts: []core.Packet{{PTS: 1}, {PTS: 2}, {PTS: 3}}}
	p := New(Config{
		Source:       src,
		Muxer:        m,
		Format:       "kyber",
		OnWriteError: config.OnWriteErrorSkip,
		Logger:       testLogger(),
	})

	require.NoError(t, p.Run(context.Background()))
	m.AssertExpectations(t)

	s := p.Metrics().Snapshot()
	assert.Equal(t, Stats{Read: 3, Written: 1, Bytes: muxer.HeaderSize, WriteErrors: 2, Skipped: 2}, s)
}

func TestRun_SkipNeverCoversNotValidated(t *testing.T) {
	m := new(MockMuxer)
	m.On("Validate").Return(nil)
	m.On("WritePacket", mock.Anything).Return(core.ErrNotValidated)

	p := New(Config{
		Source:       &sliceSource{pkts: []core.Packet{{PTS: 1}, {PTS: 2}}},
		Muxer:        m,
		OnWriteError: config.OnWriteErrorSkip,
		Logger:       testLogger(),
	})

	assert.ErrorIs(t, p.Run(context.Background()), core.ErrNotValidated)
	m.AssertNumberOfCalls(t, "WritePacket", 1)
}

func TestRun_SourceError(t *testing.T) {
	readErr := errors.New("truncated capture")
	p := New(Config{
		Source: &sliceSource{pkts: []core.Packet{{PTS: 1}}, err: readErr},
		Muxer:  videoContainer(io.Discard),
		Logger: testLogger(),
	})

	err := p.Run(context.Background())
	assert.ErrorIs(t, err, readErr)
	assert.Equal(t, uint64(1), p.Metrics().Snapshot().Written)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &sliceSource{pkts: []core.Packet{{PTS: 1}}}
	p := New(Config{Source: src, Muxer: videoContainer(io.Discard), Logger: testLogger()})

	assert.ErrorIs(t, p.Run(ctx), context.Canceled)
	assert.Len(t, src.pkts, 1)
}

func TestErrorType(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{core.ErrInvalidStreamCount, "invalid_stream_count"},
		{fmt.Errorf("x: %w", core.ErrWrongStreamType), "wrong_stream_type"},
		{fmt.Errorf("%w: payload: %w", core.ErrSinkWrite, io.ErrShortWrite), "sink_write"},
		{core.ErrPayloadTooLarge, "payload_too_large"},
		{core.ErrNotValidated, "not_validated"},
		{errors.New("other"), "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorType(tt.err))
	}
}
