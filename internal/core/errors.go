// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors. Callers match them with errors.Is; every layer wraps
// with fmt.Errorf("...: %w", err).
var (
	// Container validation errors
	ErrInvalidStreamCount = errors.New("kyber: invalid stream count")
	ErrWrongStreamType    = errors.New("kyber: wrong stream type")
	ErrNotValidated       = errors.New("kyber: container not validated")

	// Packet framing errors
	ErrSinkWrite       = errors.New("kyber: sink write failed")
	ErrPayloadTooLarge = errors.New("kyber: payload too large")

	// Host wiring errors
	ErrUnsupportedSink   = errors.New("kyber: unsupported sink")
	ErrUnsupportedSource = errors.New("kyber: unsupported source")
	ErrUnknownFormat     = errors.New("kyber: unknown format")

	// Configuration errors
	ErrConfigInvalid = errors.New("kyber: invalid configuration")
)
