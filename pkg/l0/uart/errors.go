package uart

import "errors"

var (
	// ErrBusy indicates a previous packet is still being sent.
	// The caller must try again later rather than spin in place.
	ErrBusy = errors.New("transmitter busy")
	// ErrInvalidArgument indicates empty data or data larger than BufferSize.
	ErrInvalidArgument = errors.New("invalid send argument")
	// ErrTimeout indicates WaitComplete reached its spin bound.
	ErrTimeout = errors.New("transmit wait timeout")
)
