// Package frame provides the wire format of sample frames.
package frame

// A sample frame is a fixed 30-byte little-endian record:
//
//	[0]      0xAA
//	[1]      0x55
//	[2..4)   sequence        u16
//	[4..8)   timestamp       u32, ticks at capture
//	[8..14)  accel x, y, z   i16
//	[14..20) gyro x, y, z    i16
//	[20..24) process time    u32, ticks spent reading the sensor
//	[24..28) prior send time u32, ticks the previous hand-off took
//	[28]     checksum        sum of bytes [0, 28) mod 256
//	[29]     padding         always 0
//
// Producer: L0 firmware
// Consumer: L1 host receiver
