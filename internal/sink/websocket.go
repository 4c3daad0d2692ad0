// SPDX-License-Identifier: MIT
package sink

import (
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"ledstrip/internal/pixel"

	"github.com/gorilla/websocket"
)

// FrameMessage is the JSON document broadcast to preview clients.
type FrameMessage struct {
	Seq    uint64     `json:"seq"`
	Time   int64      `json:"time"` // unix milliseconds
	Pixels [][3]uint8 `json:"pixels"`
}

// WebSocket serves a live preview of the strip on /ws. Frames are dropped
// rather than queued when clients fall behind.
type WebSocket struct {
	addr      string
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan FrameMessage
	server    *http.Server
	seq       uint64
	sendMu    sync.Mutex // guards broadcast against Close
	closed    bool
	closeOnce sync.Once
}

// NewWebSocket creates the preview server. Call Start to listen on addr.
func NewWebSocket(addr string) *WebSocket {
	ws := &WebSocket{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // preview pages are served from anywhere
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan FrameMessage, 16),
	}
	go ws.handleBroadcasts()
	return ws
}

// Handler returns the HTTP handler serving the preview endpoint.
func (ws *WebSocket) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", ws.handleWebSocket)
	return mux
}

// Start binds addr and serves in the background. Bind errors are returned
// so startup can skip the preview.
func (ws *WebSocket) Start() error {
	ln, err := net.Listen("tcp", ws.addr)
	if err != nil {
		return err
	}
	ws.server = &http.Server{
		Handler:           ws.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Infof("websocket preview listening on %s", ln.Addr())
		if err := ws.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("websocket server error: %v", err)
		}
	}()
	return nil
}

func (ws *WebSocket) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnf("websocket upgrade error: %v", err)
		return
	}

	ws.clientsMu.Lock()
	ws.clients[conn] = true
	total := len(ws.clients)
	ws.clientsMu.Unlock()
	logger.Infof("preview client connected, total: %d", total)

	// Clients never send anything; a read error means they went away.
	go func() {
		if _, _, err := conn.ReadMessage(); err != nil {
			ws.clientsMu.Lock()
			delete(ws.clients, conn)
			total := len(ws.clients)
			ws.clientsMu.Unlock()
			conn.Close()
			logger.Infof("preview client disconnected, total: %d", total)
		}
	}()
}

func (ws *WebSocket) handleBroadcasts() {
	for msg := range ws.broadcast {
		ws.clientsMu.Lock()
		for client := range ws.clients {
			if err := client.WriteJSON(msg); err != nil {
				logger.Warnf("error sending to preview client: %v", err)
				client.Close()
				delete(ws.clients, client)
			}
		}
		ws.clientsMu.Unlock()
	}
}

// Clients returns the number of connected preview clients.
func (ws *WebSocket) Clients() int {
	ws.clientsMu.Lock()
	defer ws.clientsMu.Unlock()
	return len(ws.clients)
}

func (*WebSocket) Name() string { return "websocket preview" }

// Update queues the frame for broadcast and never blocks.
func (ws *WebSocket) Update(b pixel.Buffer) error {
	ws.seq++
	msg := FrameMessage{Seq: ws.seq, Time: time.Now().UnixMilli(), Pixels: b.RGB()}

	ws.sendMu.Lock()
	defer ws.sendMu.Unlock()
	if ws.closed {
		return nil
	}
	select {
	case ws.broadcast <- msg:
	default:
	}
	return nil
}

// Close disconnects every client and shuts the server down.
func (ws *WebSocket) Close() error {
	var err error
	ws.closeOnce.Do(func() {
		logger.Infof("closing websocket preview")
		ws.sendMu.Lock()
		ws.closed = true
		close(ws.broadcast)
		ws.sendMu.Unlock()

		ws.clientsMu.Lock()
		for client := range ws.clients {
			client.Close()
		}
		ws.clients = make(map[*websocket.Conn]bool)
		ws.clientsMu.Unlock()

		if ws.server != nil {
			err = ws.server.Close()
		}
	})
	return err
}

var _ Sink = (*WebSocket)(nil)
