package frame

import (
	"encoding/binary"
	"io"
)

// Wire layout constants.
const (
	Size           = 30
	Header0   byte = 0xAA
	Header1   byte = 0x55
	ChecksumAt     = 28
	PaddingAt      = 29
)

const (
	offSeq         = 2
	offTimestamp   = 4
	offAccel       = 8
	offGyro        = 14
	offProcessTime = 20
	offPriorSend   = 24
)

// Seq is the 16-bit frame sequence number.
type Seq uint16

// Next returns the following sequence number, wrapping at 65536.
func (s Seq) Next() Seq {
	return s + 1
}

// Frame is one timestamped sensor reading plus pipeline timing.
type Frame struct {
	Seq           Seq
	Timestamp     uint32
	Accel         [3]int16
	Gyro          [3]int16
	ProcessTime   uint32
	PriorSendTime uint32
	// Checksum is filled by Seal and Decode. Encode always recomputes it.
	Checksum byte
}

// Buffer holds exactly one encoded frame.
type Buffer [Size]byte

// Checksum sums the bytes modulo 256. Callers pass bytes [0, 28).
func Checksum(b []byte) (sum byte) {
	for _, v := range b {
		sum += v
	}
	return
}

// Encode returns the wire form of f.
func Encode(f *Frame) (buf Buffer) {
	f.EncodeTo(&buf)
	return
}

// EncodeTo writes the wire form of f into buf without allocating.
func (f *Frame) EncodeTo(buf *Buffer) {
	buf[0], buf[1] = Header0, Header1
	binary.LittleEndian.PutUint16(buf[offSeq:], uint16(f.Seq))
	binary.LittleEndian.PutUint32(buf[offTimestamp:], f.Timestamp)
	for i := 0; i < 3; i++ {
		binary.LittleEndian.PutUint16(buf[offAccel+i*2:], uint16(f.Accel[i]))
		binary.LittleEndian.PutUint16(buf[offGyro+i*2:], uint16(f.Gyro[i]))
	}
	binary.LittleEndian.PutUint32(buf[offProcessTime:], f.ProcessTime)
	binary.LittleEndian.PutUint32(buf[offPriorSend:], f.PriorSendTime)
	buf[ChecksumAt] = Checksum(buf[:ChecksumAt])
	buf[PaddingAt] = 0
}

// Seal computes and records the checksum of f.
func (f *Frame) Seal() byte {
	var buf Buffer
	f.EncodeTo(&buf)
	f.Checksum = buf[ChecksumAt]
	return f.Checksum
}

// Bytes encodes the frame into a new slice.
func (f *Frame) Bytes() []byte {
	buf := Encode(f)
	return buf[:]
}

// WriteTo implements io.WriterTo.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	buf := Encode(f)
	n, err := w.Write(buf[:])
	return int64(n), err
}

// Decode validates and parses one encoded frame. Bytes beyond Size are ignored.
func Decode(b []byte) (f Frame, err error) {
	if len(b) < Size {
		return f, ErrShortFrame
	}
	if b[0] != Header0 || b[1] != Header1 {
		return f, ErrBadHeader
	}
	if Checksum(b[:ChecksumAt]) != b[ChecksumAt] {
		return f, ErrChecksum
	}
	f.Seq = Seq(binary.LittleEndian.Uint16(b[offSeq:]))
	f.Timestamp = binary.LittleEndian.Uint32(b[offTimestamp:])
	for i := 0; i < 3; i++ {
		f.Accel[i] = int16(binary.LittleEndian.Uint16(b[offAccel+i*2:]))
		f.Gyro[i] = int16(binary.LittleEndian.Uint16(b[offGyro+i*2:]))
	}
	f.ProcessTime = binary.LittleEndian.Uint32(b[offProcessTime:])
	f.PriorSendTime = binary.LittleEndian.Uint32(b[offPriorSend:])
	f.Checksum = b[ChecksumAt]
	return f, nil
}
