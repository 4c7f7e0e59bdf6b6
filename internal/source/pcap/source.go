// Package pcap reads RTP-over-UDP packets from a capture file and turns
// each RTP payload into a core.Packet.
//
// Both classic pcap and pcapng files are accepted; the format is detected
// from the file magic. Frames that are not UDP, do not parse as RTP v2, or
// do not match the configured port / payload type filters are skipped.
package pcap

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/pion/rtp"

	"firestige.xyz/kyber/internal/core"
)

// Timestamp sources.
const (
	TimestampRTP     = "rtp"     // RTP header timestamp, media clock units
	TimestampCapture = "capture" // capture time, microseconds since epoch
)

// pcapngMagic is the section header block type that opens a pcapng file.
var pcapngMagic = []byte{0x0A, 0x0D, 0x0D, 0x0A}

// Options configures the pcap source.
type Options struct {
	Path        string
	UDPPort     uint16 // 0 = any destination port
	PayloadType int    // <0 = any payload type
	Timestamp   string // rtp | capture
}

// packetDataSource is satisfied by both pcapgo.Reader and pcapgo.NgReader.
type packetDataSource interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

// Source is a pcap-backed packet source.
type Source struct {
	opts    Options
	file    *os.File
	reader  packetDataSource
	read    uint64
	skipped uint64
}

// Open opens the capture file at opts.Path.
func Open(opts Options) (*Source, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("%w: pcap source requires 'path'", core.ErrConfigInvalid)
	}
	f, err := os.Open(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap file %s: %w", opts.Path, err)
	}
	s, err := NewSource(f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	s.file = f
	return s, nil
}

// NewSource reads a capture from r.
func NewSource(r io.Reader, opts Options) (*Source, error) {
	if opts.Timestamp == "" {
		opts.Timestamp = TimestampRTP
	}
	if opts.Timestamp != TimestampRTP && opts.Timestamp != TimestampCapture {
		return nil, fmt.Errorf("%w: unknown timestamp source %q", core.ErrConfigInvalid, opts.Timestamp)
	}

	br := bufio.NewReader(r)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture header: %w", err)
	}

	var reader packetDataSource
	if bytes.Equal(magic, pcapngMagic) {
		reader, err = pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
	} else {
		reader, err = pcapgo.NewReader(br)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}

	return &Source{opts: opts, reader: reader}, nil
}

// ReadPacket returns the next RTP payload as a packet, or io.EOF.
func (s *Source) ReadPacket() (core.Packet, error) {
	for {
		data, ci, err := s.reader.ReadPacketData()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return core.Packet{}, io.EOF
			}
			return core.Packet{}, fmt.Errorf("failed to read packet: %w", err)
		}
		s.read++

		pkt, ok := s.decode(data, ci)
		if !ok {
			s.skipped++
			continue
		}
		return pkt, nil
	}
}

func (s *Source) decode(data []byte, ci gopacket.CaptureInfo) (core.Packet, bool) {
	frame := gopacket.NewPacket(data, s.reader.LinkType(), gopacket.DecodeOptions{Lazy: true, NoCopy: true})
	udpLayer := frame.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		return core.Packet{}, false
	}
	udp := udpLayer.(*layers.UDP)
	if s.opts.UDPPort != 0 && uint16(udp.DstPort) != s.opts.UDPPort {
		return core.Packet{}, false
	}

	var rp rtp.Packet
	if err := rp.Unmarshal(udp.Payload); err != nil {
		slog.Debug("pcap source: not an RTP packet", "frame", s.read, "error", err)
		return core.Packet{}, false
	}
	if rp.Version != 2 {
		return core.Packet{}, false
	}
	if s.opts.PayloadType >= 0 && int(rp.PayloadType) != s.opts.PayloadType {
		return core.Packet{}, false
	}

	pts := int64(rp.Timestamp)
	if s.opts.Timestamp == TimestampCapture {
		pts = ci.Timestamp.UnixMicro()
	}
	return core.Packet{PTS: pts, Data: rp.Payload}, true
}

// Stats returns the number of capture frames read and skipped so far.
func (s *Source) Stats() (read, skipped uint64) {
	return s.read, s.skipped
}

// Close closes the capture file when the source owns it.
func (s *Source) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
