package frame

import "errors"

var (
	// ErrShortFrame indicates fewer than Size bytes were given to Decode.
	ErrShortFrame = errors.New("short frame")
	// ErrBadHeader indicates the frame does not start with 0xAA 0x55.
	ErrBadHeader = errors.New("bad frame header")
	// ErrChecksum indicates the checksum byte does not match bytes [0, 28).
	ErrChecksum = errors.New("frame checksum mismatch")
)
