//go:build rp2040

// Package rp2 implements the hal collaborators on the RP2040.
//
// The microsecond timer provides the tick source and its alarm 3 the
// sampling interrupt. UART0 is driven directly with its FIFO disabled so
// every transmit-ready interrupt moves exactly one byte; firmware using
// this package must not configure machine.UART0 and should use the USB
// console (tinygo flash -serial=usb).
package rp2
