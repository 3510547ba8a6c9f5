// Package comm provides the host side of the L0 telemetry link.
package comm

// The board streams fixed 30-byte frames with no flow control and no
// acknowledgement. The host joins the stream at an arbitrary byte, so the
// receiver hunts for the 0xAA 0x55 header, validates the checksum and
// on a mismatch rescans the bytes it already has for the next header
// instead of discarding a whole frame.
//
// Producer: L0 firmware
// Consumer: host bridge, sensorlink-sim
