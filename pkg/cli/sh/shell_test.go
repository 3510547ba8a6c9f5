package sh

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sensorlink/pkg/l1"
)

func TestFormatInfo(t *testing.T) {
	ref := l1.BridgeRef{Kind: "sensorlink", ID: "bench"}
	require.Equal(t, ref.Name(), FormatInfo(l1.BridgeInfo{Ref: ref}))
	require.Equal(t, ref.Name()+": rp2040 bench [/dev/ttyACM0 frames]", FormatInfo(l1.BridgeInfo{
		Ref: ref,
		Meta: l1.BridgeMeta{
			Description: "rp2040 bench",
			Device:      "/dev/ttyACM0",
			Mode:        "frames",
		},
	}))
}
