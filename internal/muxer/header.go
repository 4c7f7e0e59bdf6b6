package muxer

import (
	"encoding/binary"
	"fmt"
	"math"

	"firestige.xyz/kyber/internal/core"
)

const (
	// HeaderSize is the fixed size of every packet header.
	HeaderSize = 16

	// headerMeaningfulLen covers timestamp and size; the rest is reserved.
	headerMeaningfulLen = 12

	// MaxPayloadSize is the largest payload the 32-bit size field can carry.
	MaxPayloadSize = math.MaxUint32
)

// Header is the decoded form of a packet header.
type Header struct {
	PTS  int64
	Size uint32
}

// NewHeader builds a Header, rejecting sizes the wire field cannot hold.
func NewHeader(pts int64, size uint64) (Header, error) {
	if size > MaxPayloadSize {
		return Header{}, fmt.Errorf("%w: %d bytes (max %d)", core.ErrPayloadTooLarge, size, uint64(MaxPayloadSize))
	}
	return Header{PTS: pts, Size: uint32(size)}, nil
}

// Encode returns the 16-byte wire form. Reserved bytes are zero.
func (h Header) Encode() [HeaderSize]byte {
	var b [HeaderSize]byte
	binary.BigEndian.PutUint64(b[0:8], uint64(h.PTS))
	binary.BigEndian.PutUint32(b[8:12], h.Size)
	return b
}

// ParseHeader decodes the timestamp and size from a wire header.
// The reserved bytes are ignored.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("kyber: header too short (%d bytes, need %d)", len(b), HeaderSize)
	}
	return Header{
		PTS:  int64(binary.BigEndian.Uint64(b[0:8])),
		Size: binary.BigEndian.Uint32(b[8:12]),
	}, nil
}

// diagnosticLine renders the per-packet trace line: timestamp, size and the
// meaningful header bytes in hex.
func diagnosticLine(h Header, wire []byte) string {
	line := make([]byte, 0, 64)
	line = fmt.Appendf(line, "[pts=%d size=%d]\t", h.PTS, h.Size)
	for i := 0; i < headerMeaningfulLen; i++ {
		if i > 0 {
			line = append(line, ' ')
		}
		line = fmt.Appendf(line, "%02x", wire[i])
	}
	return string(line)
}
