// Package serial opens the host side of the board's serial link.
package serial

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tarm/serial"
	"go.bug.st/serial/enumerator"
)

// Port is an open serial port.
type Port interface {
	io.ReadWriteCloser

	// Flush discards data not yet read or written.
	Flush() error
}

// Config holds serial port configuration.
type Config struct {
	// Device path (e.g. "/dev/ttyACM0", "COM3").
	Device string `mapstructure:"device"`
	Baud   int    `mapstructure:"baud"`
	// ReadTimeout bounds a single Read; 0 blocks.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

var defaultConfig = Config{
	Device:      "/dev/ttyACM0",
	Baud:        115200,
	ReadTimeout: 100 * time.Millisecond,
}

func init() {
	if val := os.Getenv("SENSORLINK_DEVICE"); val != "" {
		defaultConfig.Device = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Device, "device", defaultConfig.Device, "Serial device")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Serial baud rate")
	flag.DurationVar(&defaultConfig.ReadTimeout, "read-timeout", defaultConfig.ReadTimeout, "Serial read timeout, 0 to block")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Open opens the port described by the config.
func (c *Config) Open() (Port, error) {
	p, err := Open(c)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ErrReadTimeout is returned by Read when nothing arrived within
// Config.ReadTimeout. os.IsTimeout reports true for it.
var ErrReadTimeout error = timeoutError{}

type timeoutError struct{}

func (timeoutError) Error() string   { return "serial read timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

type flusher interface {
	io.ReadWriteCloser
	Flush() error
}

// NativePort wraps the tarm/serial implementation.
type NativePort struct {
	port flusher
	cfg  Config
}

// Open opens a native serial port.
func Open(cfg *Config) (*NativePort, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cfg.Device, err)
	}
	return &NativePort{port: port, cfg: *cfg}, nil
}

// Read reads data from the serial port. A read that times out returns
// ErrReadTimeout rather than io.EOF, so callers can tell an idle line from
// a closed one.
func (p *NativePort) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if n == 0 && err == io.EOF && p.cfg.ReadTimeout > 0 {
		return 0, ErrReadTimeout
	}
	return n, err
}

// Write writes data to the serial port.
func (p *NativePort) Write(b []byte) (int, error) {
	return p.port.Write(b)
}

// Close closes the serial port.
func (p *NativePort) Close() error {
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// Flush discards buffered data.
func (p *NativePort) Flush() error {
	return p.port.Flush()
}

// Config returns the configuration the port was opened with.
func (p *NativePort) Config() Config {
	return p.cfg
}

// PortInfo describes a serial port found on the host.
type PortInfo struct {
	Name         string `json:"name"`
	IsUSB        bool   `json:"usb"`
	VID          string `json:"vid,omitempty"`
	PID          string `json:"pid,omitempty"`
	SerialNumber string `json:"serial,omitempty"`
	Product      string `json:"product,omitempty"`
}

// String implements fmt.Stringer.
func (i PortInfo) String() string {
	if !i.IsUSB {
		return i.Name
	}
	return fmt.Sprintf("%s [%s:%s] %s %s", i.Name, i.VID, i.PID, i.Product, i.SerialNumber)
}

// ListPorts enumerates the serial ports on the host.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	return ports, nil
}
