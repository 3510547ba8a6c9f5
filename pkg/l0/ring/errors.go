package ring

import "errors"

var (
	// ErrOverflow indicates the ring was full and the pushed frame was dropped.
	ErrOverflow = errors.New("ring overflow")
	// ErrEmpty indicates there is nothing to pop. It is a normal polling outcome.
	ErrEmpty = errors.New("ring empty")
	// ErrSize indicates the requested size is not a power of two in [2, 65536].
	ErrSize = errors.New("ring size must be a power of two")
)
