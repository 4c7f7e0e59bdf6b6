// Package muxer implements the kyber single-stream container writer.
//
// A kyber file is a bare concatenation of framed packets:
//
//	Offset  Size  Description
//	------  ----  -----------
//	0       8     Presentation timestamp (big-endian int64)
//	8       4     Payload size (big-endian uint32)
//	12      4     Reserved, written as zero
//	16      …     Payload (size bytes)
//
// There is no file header, trailer or index. A container accepts exactly
// one stream, and its media type must match the format's codec slots.
package muxer

import (
	"fmt"
	"strings"

	"firestige.xyz/kyber/internal/core"
)

// Format describes a single-stream output format. A set codec slot makes
// the matching media type mandatory for the container's only stream.
type Format struct {
	Name       string
	LongName   string
	Extensions string
	AudioCodec core.CodecID
	VideoCodec core.CodecID
}

// Kyber is the built-in kyber video format: one H.264 video stream.
var Kyber = Format{
	Name:       "kyber",
	LongName:   "kyber video",
	Extensions: "kyber",
	AudioCodec: core.CodecNone,
	VideoCodec: core.CodecH264,
}

// builtinFormats is an explicit table, not a registry: nothing outside this
// package can add to it.
var builtinFormats = []Format{Kyber}

// LookupFormat returns the built-in format with the given name.
func LookupFormat(name string) (Format, error) {
	for _, f := range builtinFormats {
		if strings.EqualFold(f.Name, name) {
			return f, nil
		}
	}
	return Format{}, fmt.Errorf("%w: %q", core.ErrUnknownFormat, name)
}

// ExpectedMediaType returns the media type a format requires of its only
// stream. The audio slot wins when both are set, matching Validate.
func (f Format) ExpectedMediaType() (core.MediaType, bool) {
	switch {
	case f.AudioCodec.IsSet():
		return core.MediaTypeAudio, true
	case f.VideoCodec.IsSet():
		return core.MediaTypeVideo, true
	default:
		return core.MediaTypeUnknown, false
	}
}
