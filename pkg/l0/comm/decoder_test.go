package comm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sensorlink/pkg/l0/frame"
)

func TestDecoder(t *testing.T) {
	var frames Frames
	d := NewDecoder(&frames)
	in := append([]byte{0x13, frame.Header0}, frameBytes(1, 2)...)
	in = append(in, corrupt(frameBytes(3), 5)...)
	in = append(in, frameBytes(4)...)
	// split writes across frame boundaries
	for _, chunk := range [][]byte{in[:7], in[7:45], in[45:]} {
		n, err := d.Write(chunk)
		require.NoError(t, err)
		require.Equal(t, len(chunk), n)
	}
	require.Equal(t, Frames{*testFrame(1), *testFrame(2), *testFrame(4)}, frames)
	require.Equal(t, ParserStats{Frames: 3, ChecksumErrors: 1, SkippedBytes: 2 + frame.Size}, d.Stats())
	require.Equal(t, SyncStateReady, d.State())
}
