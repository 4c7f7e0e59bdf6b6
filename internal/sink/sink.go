// Package sink provides the byte sinks a container writes to.
//
// Every sink is an append-only io.WriteCloser. Sinks add no framing of
// their own; the file sink is unbuffered, the UDP sink chunks the byte
// stream into fixed-size datagrams.
//
// Example output configuration:
//
//	output:
//	  type: udp
//	  options:
//	    address: "239.1.1.1:5000"
//	    datagram_size: 1316
//	    multicast_ttl: 4
package sink

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"

	"firestige.xyz/kyber/internal/config"
	"firestige.xyz/kyber/internal/core"
)

// Sink types.
const (
	TypeFile    = "file"
	TypeConsole = "console"
	TypeUDP     = "udp"
)

// New builds the sink described by cfg.
func New(cfg config.OutputConfig) (io.WriteCloser, error) {
	switch strings.ToLower(cfg.Type) {
	case TypeFile:
		var opts FileOptions
		if err := decodeOptions(cfg.Options, &opts); err != nil {
			return nil, fmt.Errorf("file sink: %w", err)
		}
		return NewFileSink(opts)
	case TypeConsole:
		return NewConsoleSink(os.Stdout), nil
	case TypeUDP:
		var opts UDPOptions
		if err := decodeOptions(cfg.Options, &opts); err != nil {
			return nil, fmt.Errorf("udp sink: %w", err)
		}
		return NewUDPSink(opts)
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedSink, cfg.Type)
	}
}

// decodeOptions maps the free-form options block onto a typed struct.
func decodeOptions(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("%w: %v", core.ErrConfigInvalid, err)
	}
	return nil
}
