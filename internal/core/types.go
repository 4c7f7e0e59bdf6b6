// Package core defines core types with zero external dependencies.
package core

import (
	"fmt"
	"strings"
)

// MediaType classifies an elementary stream.
type MediaType uint8

const (
	MediaTypeUnknown MediaType = iota
	MediaTypeVideo
	MediaTypeAudio
	MediaTypeData
	MediaTypeSubtitle
)

func (m MediaType) String() string {
	switch m {
	case MediaTypeVideo:
		return "video"
	case MediaTypeAudio:
		return "audio"
	case MediaTypeData:
		return "data"
	case MediaTypeSubtitle:
		return "subtitle"
	default:
		return "unknown"
	}
}

// ParseMediaType maps a config string to a MediaType.
func ParseMediaType(s string) (MediaType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "video":
		return MediaTypeVideo, nil
	case "audio":
		return MediaTypeAudio, nil
	case "data":
		return MediaTypeData, nil
	case "subtitle":
		return MediaTypeSubtitle, nil
	default:
		return MediaTypeUnknown, fmt.Errorf("%w: unknown media type %q", ErrConfigInvalid, s)
	}
}

// CodecID identifies the codec of a stream. CodecNone doubles as the
// "no requirement" value in a format's audio/video codec slots.
type CodecID string

const (
	CodecNone CodecID = ""
	CodecH264 CodecID = "h264"
	CodecH265 CodecID = "h265"
	CodecVP8  CodecID = "vp8"
	CodecVP9  CodecID = "vp9"
	CodecAV1  CodecID = "av1"
	CodecAAC  CodecID = "aac"
	CodecOpus CodecID = "opus"
	CodecPCMU CodecID = "pcmu"
	CodecPCMA CodecID = "pcma"
)

// ParseCodecID normalizes a config string. "none" and "" map to CodecNone.
func ParseCodecID(s string) CodecID {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "none" {
		return CodecNone
	}
	return CodecID(s)
}

func (c CodecID) String() string {
	if c == CodecNone {
		return "none"
	}
	return string(c)
}

// IsSet reports whether the codec slot carries a requirement.
func (c CodecID) IsSet() bool { return c != CodecNone }

// Stream describes one elementary stream declared on a container.
type Stream struct {
	Index     int
	MediaType MediaType
	Codec     CodecID
}
