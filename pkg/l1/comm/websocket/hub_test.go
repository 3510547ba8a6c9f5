package websocket

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitClients(t *testing.T, h *Hub, n int) {
	deadline := time.Now().Add(time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expect %d clients, got %d", n, h.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcast(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	hub := NewHub("")
	hub.Path = "/events"
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- hub.Serve(ctx, ln) }()

	url := "ws://" + ln.Addr().String() + "/events"
	c1, err := Dial(url, "http://localhost/")
	require.NoError(t, err)
	c2, err := Dial(url, "http://localhost/")
	require.NoError(t, err)
	waitClients(t, hub, 2)

	require.NoError(t, hub.WritePacket([]byte{1, 2, 3}))
	for _, c := range []*ReadWriter{c1, c2} {
		pkt, err := c.ReadPacket()
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2, 3}, pkt)
	}

	require.NoError(t, c1.Close())
	waitClients(t, hub, 1)
	require.NoError(t, hub.WritePacket([]byte{4}))
	pkt, err := c2.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte{4}, pkt)

	cancel()
	require.Equal(t, context.Canceled, <-errCh)
	require.Equal(t, 0, hub.Clients())
}
