package hal

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTickConversions(t *testing.T) {
	cases := []struct {
		name  string
		hz    uint32
		ms    uint32
		ticks uint32
	}{
		{name: "gpt1 50ms", hz: 645000, ms: 50, ticks: 32250},
		{name: "gpt1 5s", hz: 645000, ms: 5000, ticks: 3225000},
		{name: "1MHz 200ms", hz: 1000000, ms: 200, ticks: 200000},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.ticks, TicksFromMillis(c.ms, c.hz))
			require.Equal(t, c.ms, Millis(c.ticks, c.hz))
		})
	}
	// no overflow for large tick counts
	require.Equal(t, uint32(6658), Millis(0xFFFFFFFF, 645000000))
}
