package websocket

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// Hub serves a websocket endpoint and broadcasts every written packet to
// all connected clients. Packets from clients are discarded. A client
// failing to take a packet is dropped.
type Hub struct {
	// Addr is the listen address for Run, e.g. ":8090".
	Addr string
	// Path is the endpoint path, "/" when empty.
	Path string

	lock    sync.Mutex
	clients map[*websocket.Conn]chan struct{}
}

// NewHub creates a Hub listening on addr.
func NewHub(addr string) *Hub {
	return &Hub{Addr: addr}
}

// Handler returns the http.Handler of the endpoint.
func (h *Hub) Handler() http.Handler {
	return websocket.Handler(h.serve)
}

func (h *Hub) serve(conn *websocket.Conn) {
	doneCh := make(chan struct{})
	h.lock.Lock()
	if h.clients == nil {
		h.clients = make(map[*websocket.Conn]chan struct{})
	}
	h.clients[conn] = doneCh
	h.lock.Unlock()
	glog.Infof("websocket client %s connected", conn.Request().RemoteAddr)

	go func() {
		var discard []byte
		for websocket.Message.Receive(conn, &discard) == nil {
		}
		h.drop(conn)
	}()
	// the connection closes when the handler returns.
	<-doneCh
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.lock.Lock()
	doneCh, ok := h.clients[conn]
	delete(h.clients, conn)
	h.lock.Unlock()
	if ok {
		close(doneCh)
		glog.Infof("websocket client %s disconnected", conn.Request().RemoteAddr)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.clients)
}

// WritePacket implements PacketWriter.
func (h *Hub) WritePacket(pkt []byte) error {
	h.lock.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.lock.Unlock()
	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(time.Second))
		if err := websocket.Message.Send(conn, pkt); err != nil {
			glog.Warningf("websocket client %s: %v", conn.Request().RemoteAddr, err)
			h.drop(conn)
		}
	}
	return nil
}

// Run implements Runnable. It serves until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", h.Addr)
	if err != nil {
		return err
	}
	return h.Serve(ctx, ln)
}

// Serve serves on an existing listener until ctx is done.
func (h *Hub) Serve(ctx context.Context, ln net.Listener) error {
	path := h.Path
	if path == "" {
		path = "/"
	}
	mux := http.NewServeMux()
	mux.Handle(path, h.Handler())
	server := &http.Server{Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()
	glog.Infof("websocket mirror on %s%s", ln.Addr(), path)
	select {
	case <-ctx.Done():
		h.closeAll()
		server.Close()
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		h.closeAll()
		return err
	}
}

func (h *Hub) closeAll() {
	h.lock.Lock()
	conns := h.clients
	h.clients = nil
	h.lock.Unlock()
	for conn, doneCh := range conns {
		close(doneCh)
		conn.Close()
	}
}
