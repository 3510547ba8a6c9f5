package serial

import (
	"bytes"
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakePort struct {
	bytes.Buffer
	closed  bool
	flushes int
}

func (p *fakePort) Close() error { p.closed = true; return nil }
func (p *fakePort) Flush() error { p.flushes++; return nil }

func TestReadTimeoutIsNotEOF(t *testing.T) {
	cases := []struct {
		name    string
		timeout time.Duration
		expect  error
	}{
		{name: "with timeout", timeout: 100 * time.Millisecond, expect: ErrReadTimeout},
		{name: "blocking", expect: io.EOF},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			fake := &fakePort{}
			fake.WriteString("ab")
			p := &NativePort{port: fake, cfg: Config{ReadTimeout: c.timeout}}
			buf := make([]byte, 4)
			n, err := p.Read(buf)
			require.NoError(t, err)
			require.Equal(t, "ab", string(buf[:n]))
			_, err = p.Read(buf)
			require.Equal(t, c.expect, err)
		})
	}
	require.True(t, os.IsTimeout(ErrReadTimeout))
}

func TestPortPassThrough(t *testing.T) {
	fake := &fakePort{}
	p := &NativePort{port: fake, cfg: *NewConfig()}
	n, err := p.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []byte{1, 2, 3}, fake.Bytes())
	require.NoError(t, p.Flush())
	require.Equal(t, 1, fake.flushes)
	require.NoError(t, p.Close())
	require.True(t, fake.closed)
	require.Equal(t, Default().Baud, p.Config().Baud)
}

func TestPortInfoString(t *testing.T) {
	require.Equal(t, "/dev/ttyS0", PortInfo{Name: "/dev/ttyS0"}.String())
	require.Equal(t, "/dev/ttyACM0 [2e8a:000a] Pico E6614",
		PortInfo{Name: "/dev/ttyACM0", IsUSB: true, VID: "2e8a", PID: "000a", Product: "Pico", SerialNumber: "E6614"}.String())
}

func TestOpenNilConfig(t *testing.T) {
	_, err := Open(nil)
	require.Error(t, err)
}
