package muxer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/kyber/internal/core"
)

func TestHeader_Scenario1000x4(t *testing.T) {
	h, err := NewHeader(1000, 4)
	require.NoError(t, err)

	wire := h.Encode()
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0x03, 0xE8}, wire[0:8])
	assert.Equal(t, []byte{0, 0, 0, 4}, wire[8:12])
	assert.Equal(t, []byte{0, 0, 0, 0}, wire[12:16], "reserved bytes must be zero")
}

func TestHeader_RoundTrip(t *testing.T) {
	cases := []struct {
		pts  int64
		size uint64
	}{
		{0, 0},
		{1, 1},
		{-1, 188},
		{math.MinInt64, 0},
		{math.MaxInt64, MaxPayloadSize},
		{90000 * 3600, 65536},
		{-90000, 1316},
	}

	for _, c := range cases {
		h, err := NewHeader(c.pts, c.size)
		require.NoError(t, err)
		wire := h.Encode()

		got, err := ParseHeader(wire[:])
		require.NoError(t, err)
		assert.Equal(t, c.pts, got.PTS)
		assert.Equal(t, uint32(c.size), got.Size)
	}
}

func TestHeader_BigEndianSignedTimestamp(t *testing.T) {
	h, err := NewHeader(-2, 0)
	require.NoError(t, err)
	wire := h.Encode()
	assert.Equal(t, uint64(0xFFFFFFFFFFFFFFFE), binary.BigEndian.Uint64(wire[0:8]))
}

func TestNewHeader_PayloadTooLarge(t *testing.T) {
	_, err := NewHeader(0, MaxPayloadSize+1)
	assert.ErrorIs(t, err, core.ErrPayloadTooLarge)

	_, err = NewHeader(0, MaxPayloadSize)
	assert.NoError(t, err)
}

func TestParseHeader_TooShort(t *testing.T) {
	_, err := ParseHeader(make([]byte, HeaderSize-1))
	assert.Error(t, err)
}

func TestParseHeader_IgnoresReserved(t *testing.T) {
	h, _ := NewHeader(42, 7)
	wire := h.Encode()
	wire[12], wire[13], wire[14], wire[15] = 0xDE, 0xAD, 0xBE, 0xEF

	got, err := ParseHeader(wire[:])
	require.NoError(t, err)
	assert.Equal(t, Header{PTS: 42, Size: 7}, got)
}

func TestDiagnosticLine(t *testing.T) {
	h, _ := NewHeader(1000, 4)
	wire := h.Encode()
	assert.Equal(t,
		"[pts=1000 size=4]\t00 00 00 00 00 00 03 e8 00 00 00 04",
		diagnosticLine(h, wire[:]))
}
