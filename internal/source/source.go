// Package source defines where pre-encoded packets come from.
package source

import (
	"fmt"
	"strings"

	"firestige.xyz/kyber/internal/config"
	"firestige.xyz/kyber/internal/core"
	"firestige.xyz/kyber/internal/source/pcap"
)

// Source yields packets in submission order. ReadPacket returns io.EOF
// when the input is exhausted.
type Source interface {
	ReadPacket() (core.Packet, error)
	Close() error
}

// New opens the source described by cfg.
func New(cfg config.InputConfig) (Source, error) {
	switch strings.ToLower(cfg.Type) {
	case "pcap":
		src, err := pcap.Open(pcap.Options{
			Path:        cfg.Path,
			UDPPort:     cfg.UDPPort,
			PayloadType: cfg.PayloadType,
			Timestamp:   cfg.Timestamp,
		})
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedSource, cfg.Type)
	}
}
