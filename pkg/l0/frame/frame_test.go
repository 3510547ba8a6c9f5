package frame

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	cases := []struct {
		name   string
		frame  Frame
		expect Buffer
	}{
		{
			name:  "seq 1 all zero",
			frame: Frame{Seq: 1},
			expect: Buffer{
				0xAA, 0x55, 0x01, 0x00,
				0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00,
				0x00, 0x00, 0x00, 0x00,
				0x00, // 0xAA+0x55+0x01 wraps to 0x00
				0x00,
			},
		},
		{
			name: "signed axes and timing",
			frame: Frame{
				Seq:           0x1234,
				Timestamp:     0x00010203,
				Accel:         [3]int16{1, -1, 256},
				Gyro:          [3]int16{-256, 32767, -32768},
				ProcessTime:   10,
				PriorSendTime: 0x01020304,
			},
			expect: Buffer{
				0xAA, 0x55, 0x34, 0x12,
				0x03, 0x02, 0x01, 0x00,
				0x01, 0x00, 0xFF, 0xFF, 0x00, 0x01,
				0x00, 0xFF, 0xFF, 0x7F, 0x00, 0x80,
				0x0A, 0x00, 0x00, 0x00,
				0x04, 0x03, 0x02, 0x01,
				0x5C,
				0x00,
			},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			buf := Encode(&c.frame)
			for i := range c.expect {
				require.Equalf(t, c.expect[i], buf[i], "%s.byte[%d] mismatch", c.name, i)
			}
			require.Equal(t, buf[ChecksumAt], Checksum(buf[:ChecksumAt]))
		})
	}
}

func TestEncodeIgnoresStaleChecksum(t *testing.T) {
	f := Frame{Seq: 7, Checksum: 0x42}
	buf := Encode(&f)
	require.Equal(t, Checksum(buf[:ChecksumAt]), buf[ChecksumAt])
	require.Equal(t, buf[ChecksumAt], f.Seal())
	require.Equal(t, buf[ChecksumAt], f.Checksum)
}

func TestChecksumInvariant(t *testing.T) {
	f := Frame{Timestamp: 0xFFFFFFFF, ProcessTime: 0xFFFFFFFF, PriorSendTime: 0xFFFFFFFF}
	for i := 0; i < 70000; i += 97 {
		f.Seq = Seq(i)
		f.Accel[i%3] = int16(i * 7)
		f.Gyro[(i+1)%3] = int16(-i)
		buf := Encode(&f)
		require.Equalf(t, Checksum(buf[:ChecksumAt]), buf[ChecksumAt], "seq %d", i)
		require.Zero(t, buf[PaddingAt])
	}
}

func TestDecode(t *testing.T) {
	f := Frame{
		Seq:           65535,
		Timestamp:     123456789,
		Accel:         [3]int16{-100, 200, -300},
		Gyro:          [3]int16{400, -500, 600},
		ProcessTime:   42,
		PriorSendTime: 4242,
	}
	buf := Encode(&f)
	got, err := Decode(buf[:])
	require.NoError(t, err)
	f.Seal()
	require.Equal(t, f, got)

	_, err = Decode(buf[:Size-1])
	require.Equal(t, ErrShortFrame, err)

	bad := buf
	bad[1] = 0x56
	_, err = Decode(bad[:])
	require.Equal(t, ErrBadHeader, err)

	bad = buf
	bad[10] ^= 0x01
	_, err = Decode(bad[:])
	require.Equal(t, ErrChecksum, err)
}

func TestWriteTo(t *testing.T) {
	f := Frame{Seq: 1}
	var w bytes.Buffer
	n, err := f.WriteTo(&w)
	require.NoError(t, err)
	require.EqualValues(t, Size, n)
	require.Equal(t, f.Bytes(), w.Bytes())
}

func TestSeqWraps(t *testing.T) {
	require.Equal(t, Seq(0), Seq(65535).Next())
	require.Equal(t, Seq(2), Seq(1).Next())
}
