// Provides common tangle errors definitions.
package tangle_errors

import "errors"

var (
	ErrInvalidValue  = errors.New("tangle: value cannot be canonicalized")
	ErrMalformedWire = errors.New("tangle: malformed wire object")
	ErrUnknownUid    = errors.New("tangle: unknown node uid")

	ErrBadDeltaPacket = errors.New("tangle: bad delta packet")
	ErrUnknownPacket  = errors.New("tangle: unknown packet type")
	ErrClosed         = errors.New("tangle: delta queue is closed")
	ErrOverflow       = errors.New("tangle: delta queue is overflowed")
)
