package sink

import (
	"fmt"
	"log/slog"
	"net"

	"golang.org/x/net/ipv4"

	"firestige.xyz/kyber/internal/core"
)

// DefaultDatagramSize is seven 188-byte TS packets, the usual payload for
// media over UDP.
const DefaultDatagramSize = 1316

// maxDatagramSize is the largest UDP payload over IPv4.
const maxDatagramSize = 65507

// UDPOptions configures the UDP sink.
type UDPOptions struct {
	Address      string `mapstructure:"address"`
	DatagramSize int    `mapstructure:"datagram_size"`
	MulticastTTL int    `mapstructure:"multicast_ttl"` // 0 = system default
}

// UDPSink chunks the byte stream into fixed-size datagrams. The last
// partial datagram is sent on Close.
type UDPSink struct {
	conn *net.UDPConn
	buf  []byte
	n    int
}

// NewUDPSink dials the remote address.
func NewUDPSink(opts UDPOptions) (*UDPSink, error) {
	if opts.Address == "" {
		return nil, fmt.Errorf("%w: udp sink requires 'address'", core.ErrConfigInvalid)
	}
	size := opts.DatagramSize
	if size == 0 {
		size = DefaultDatagramSize
	}
	if size < 0 || size > maxDatagramSize {
		return nil, fmt.Errorf("%w: datagram_size %d out of range", core.ErrConfigInvalid, size)
	}

	raddr, err := net.ResolveUDPAddr("udp", opts.Address)
	if err != nil {
		return nil, fmt.Errorf("udp sink: resolve %s: %w", opts.Address, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("udp sink: dial %s: %w", opts.Address, err)
	}

	if opts.MulticastTTL > 0 {
		if err := setTTL(conn, raddr, opts.MulticastTTL); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return &UDPSink{conn: conn, buf: make([]byte, size)}, nil
}

func setTTL(conn *net.UDPConn, raddr *net.UDPAddr, ttl int) error {
	if raddr.IP.To4() == nil {
		slog.Warn("udp sink: TTL only applied to IPv4 destinations", "address", raddr.String())
		return nil
	}
	if raddr.IP.IsMulticast() {
		if err := ipv4.NewPacketConn(conn).SetMulticastTTL(ttl); err != nil {
			return fmt.Errorf("udp sink: set multicast ttl: %w", err)
		}
		return nil
	}
	if err := ipv4.NewConn(conn).SetTTL(ttl); err != nil {
		return fmt.Errorf("udp sink: set ttl: %w", err)
	}
	return nil
}

// Write buffers p and sends every full datagram.
func (s *UDPSink) Write(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		c := copy(s.buf[s.n:], p)
		s.n += c
		p = p[c:]
		written += c
		if s.n == len(s.buf) {
			if err := s.flush(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

func (s *UDPSink) flush() error {
	if s.n == 0 {
		return nil
	}
	_, err := s.conn.Write(s.buf[:s.n])
	s.n = 0
	return err
}

// Close sends any buffered bytes and closes the socket.
func (s *UDPSink) Close() error {
	ferr := s.flush()
	cerr := s.conn.Close()
	if ferr != nil {
		return fmt.Errorf("udp sink: flush: %w", ferr)
	}
	return cerr
}
