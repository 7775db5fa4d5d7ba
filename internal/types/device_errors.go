package types

import (
	"context"

	"github.com/pkg/errors"
)

// Construction-time failures. A device that hits any of these is never exposed.
var (
	ErrOutOfMemory          = errors.New("backing store allocation refused: out of memory")
	ErrUnsupportedCipher    = errors.New("unsupported cipher algorithm")
	ErrUnsupportedCipherKey = errors.New("unsupported cipher key")
	ErrInvalidConfig        = errors.New("invalid device configuration")
)

// Per-request failures. They complete the failing request and nothing else.
var (
	ErrOutOfBounds    = errors.New("transfer exceeds device capacity")
	ErrAlignment      = errors.New("transfer length is not a multiple of the cipher block size")
	ErrNotSupported   = errors.New("request kind not supported")
	ErrInvalidRequest = errors.New("invalid request")
	ErrDeviceClosed   = errors.New("device is closed")
	ErrStoreClosed    = errors.New("backing store is closed")
	ErrIO             = errors.New("i/o error")
)

// StatusFromError maps a transfer error onto the completion status reported to the host.
func StatusFromError(err error) Status {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrOutOfBounds):
		return StatusOutOfBounds
	case errors.Is(err, ErrAlignment):
		return StatusAlignment
	case errors.Is(err, ErrNotSupported):
		return StatusNotSupported
	case errors.Is(err, ErrInvalidRequest):
		return StatusInvalidRequest
	case errors.Is(err, ErrDeviceClosed), errors.Is(err, ErrStoreClosed):
		return StatusClosed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCancelled
	default:
		return StatusIOError
	}
}

// Err returns the sentinel error matching a failure status, or nil for StatusOK.
func (s Status) Err() error {
	switch s {
	case StatusOK:
		return nil
	case StatusOutOfBounds:
		return ErrOutOfBounds
	case StatusAlignment:
		return ErrAlignment
	case StatusNotSupported:
		return ErrNotSupported
	case StatusInvalidRequest:
		return ErrInvalidRequest
	case StatusClosed:
		return ErrDeviceClosed
	case StatusCancelled:
		return context.Canceled
	default:
		return ErrIO
	}
}
