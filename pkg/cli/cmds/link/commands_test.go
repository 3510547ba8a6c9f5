package link

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTail(t *testing.T) {
	msg, err := ParseTail(nil)
	require.NoError(t, err)
	require.Zero(t, msg.Count)

	msg, err = ParseTail([]string{"12"})
	require.NoError(t, err)
	require.EqualValues(t, 12, msg.Count)

	_, err = ParseTail([]string{"-1"})
	require.Error(t, err)
}
