// Package stream frames packets over a byte stream, e.g. a recording file.
package stream

import (
	"encoding/binary"
	"errors"
	"io"
	"os"
)

// MaxPacketSize bounds the length prefix accepted by ReadPacket.
const MaxPacketSize = 1 << 20

// ErrPacketTooLarge indicates a corrupt length prefix.
var ErrPacketTooLarge = errors.New("packet too large")

// ReadWriter implements PacketReadWriter.
// Each packet is prefixed by 4-byte (little-endian) indicate the length.
type ReadWriter struct {
	io.ReadWriter
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{s}
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	return ReadPacket(p)
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return WritePacket(p, pkt)
}

// Close closes the underlying stream if it is closable.
func (p *ReadWriter) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// ReadPacket reads one length-prefixed packet.
func ReadPacket(r io.Reader) ([]byte, error) {
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size > MaxPacketSize {
		return nil, ErrPacketTooLarge
	}
	pkt := make([]byte, size)
	if _, err := io.ReadFull(r, pkt); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return pkt, nil
}

// WritePacket writes one length-prefixed packet.
func WritePacket(w io.Writer, pkt []byte) error {
	size := uint32(len(pkt))
	if err := binary.Write(w, binary.LittleEndian, size); err != nil {
		return err
	}
	_, err := w.Write(pkt)
	return err
}

// Recorder appends packets to a file.
type Recorder struct {
	file *os.File
}

// Create creates (or truncates) a recording file.
func Create(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Recorder{file: f}, nil
}

// WritePacket implements PacketWriter.
func (r *Recorder) WritePacket(pkt []byte) error {
	return WritePacket(r.file, pkt)
}

// Close implements io.Closer.
func (r *Recorder) Close() error {
	return r.file.Close()
}

// Replay reads every packet of a recording until EOF.
func Replay(r io.Reader, fn func([]byte) error) error {
	for {
		pkt, err := ReadPacket(r)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err = fn(pkt); err != nil {
			return err
		}
	}
}
