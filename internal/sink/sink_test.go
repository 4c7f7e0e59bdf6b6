package sink

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/kyber/internal/config"
	"firestige.xyz/kyber/internal/core"
)

// ─── Factory ───────────────────────────────────────────────────────────────

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.kyber")
	s, err := New(config.OutputConfig{Type: "file", Options: map[string]any{"path": path}})
	require.NoError(t, err)
	_, err = s.Write([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(data))
}

func TestNew_Console(t *testing.T) {
	s, err := New(config.OutputConfig{Type: "CONSOLE"})
	require.NoError(t, err)
	assert.IsType(t, &ConsoleSink{}, s)
	assert.NoError(t, s.Close())
}

func TestNew_Unsupported(t *testing.T) {
	_, err := New(config.OutputConfig{Type: "s3"})
	assert.ErrorIs(t, err, core.ErrUnsupportedSink)
}

func TestNew_BadOptions(t *testing.T) {
	_, err := New(config.OutputConfig{Type: "file", Options: map[string]any{"path": "x", "bogus": 1}})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)

	_, err = New(config.OutputConfig{Type: "file"})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)

	_, err = New(config.OutputConfig{Type: "udp"})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}

func TestDecodeOptions_WeakTypes(t *testing.T) {
	var opts UDPOptions
	err := decodeOptions(map[string]any{
		"address":       "127.0.0.1:5000",
		"datagram_size": "188",
		"multicast_ttl": 2.0,
	}, &opts)
	require.NoError(t, err)
	assert.Equal(t, UDPOptions{Address: "127.0.0.1:5000", DatagramSize: 188, MulticastTTL: 2}, opts)
}

// ─── File ──────────────────────────────────────────────────────────────────

func TestFileSink_TruncateAndAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.kyber")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	s, err := NewFileSink(FileOptions{Path: path, Sync: true})
	require.NoError(t, err)
	_, _ = s.Write([]byte("one"))
	require.NoError(t, s.Close())

	s, err = NewFileSink(FileOptions{Path: path, Append: true})
	require.NoError(t, err)
	_, _ = s.Write([]byte("two"))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "onetwo", string(data))
}

func TestFileSink_WriteAfterClose(t *testing.T) {
	s, err := NewFileSink(FileOptions{Path: filepath.Join(t.TempDir(), "out.kyber")})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Write([]byte{1})
	assert.Error(t, err)
}

func TestFileSink_BadDirectory(t *testing.T) {
	_, err := NewFileSink(FileOptions{Path: filepath.Join(t.TempDir(), "no", "such", "dir", "x")})
	assert.Error(t, err)
}

// ─── Console ───────────────────────────────────────────────────────────────

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewConsoleSink(&buf)
	n, err := s.Write([]byte{0x00, 0xFF})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, s.Close())
	assert.Equal(t, []byte{0x00, 0xFF}, buf.Bytes())
}

// ─── UDP ───────────────────────────────────────────────────────────────────

func listenUDP(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readDatagram(t *testing.T, conn *net.UDPConn) []byte {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 2048)
	n, _, err := conn.ReadFromUDP(buf)
	require.NoError(t, err)
	return buf[:n]
}

func TestUDPSink_Chunking(t *testing.T) {
	srv := listenUDP(t)

	s, err := NewUDPSink(UDPOptions{Address: srv.LocalAddr().String(), DatagramSize: 8, MulticastTTL: 3})
	require.NoError(t, err)

	payload := []byte("0123456789abcdefghij") // 20 bytes
	n, err := s.Write(payload[:5])
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	n, err = s.Write(payload[5:])
	require.NoError(t, err)
	assert.Equal(t, 15, n)
	require.NoError(t, s.Close())

	assert.Equal(t, payload[0:8], readDatagram(t, srv))
	assert.Equal(t, payload[8:16], readDatagram(t, srv))
	assert.Equal(t, payload[16:20], readDatagram(t, srv))
}

func TestUDPSink_DefaultSize(t *testing.T) {
	srv := listenUDP(t)

	s, err := NewUDPSink(UDPOptions{Address: srv.LocalAddr().String()})
	require.NoError(t, err)
	assert.Len(t, s.buf, DefaultDatagramSize)
	require.NoError(t, s.Close())
}

func TestUDPSink_InvalidSize(t *testing.T) {
	_, err := NewUDPSink(UDPOptions{Address: "127.0.0.1:9", DatagramSize: 70000})
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}
