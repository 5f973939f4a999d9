// Package telemetry implements a lightweight internal WebSocket hub that
// rebroadcasts CompositeSignal and Position lifecycle events to local
// observers (e.g. a future dashboard), independent of the venue stream
// client in gateway. Grounded on the teacher's hub.go Hub/PriceThrottler:
// the same upgrade-then-register-then-ping-loop connection lifecycle, but
// broadcasting engine events instead of a throttled ticker feed.
package telemetry

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Event is one rebroadcast message: a CompositeSignal emission or a
// Position lifecycle transition, tagged by Type for client-side dispatch.
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Hub maintains the set of connected observers and fans out Events to all
// of them. Safe for concurrent use.
type Hub struct {
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	upgrader  websocket.Upgrader
}

// NewHub returns a Hub ready to accept connections via HandleWebSocket.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// HandleWebSocket upgrades the request and holds the connection open,
// sending periodic pings and dropping the client on the first read/write
// failure. Incoming messages are not interpreted; the read loop exists only
// to detect disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("telemetry: upgrade error: %v", err)
		return
	}
	h.register(conn)
	defer func() {
		h.unregister(conn)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Hub) register(conn *websocket.Conn) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	h.clients[conn] = true
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	delete(h.clients, conn)
}

// Broadcast sends ev to every connected observer, dropping any client whose
// write fails.
func (h *Hub) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("telemetry: marshal error: %v", err)
		return
	}

	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for client := range h.clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			client.Close()
			delete(h.clients, client)
		}
	}
}

// SignalEmitted rebroadcasts a CompositeSignal emission. Payload is left as
// interface{} so telemetry has no import dependency on the model package's
// evolving CompositeSignal shape; callers pass the already-marshalable
// struct directly.
func (h *Hub) SignalEmitted(payload interface{}) {
	h.Broadcast(Event{Type: "signal_emitted", Timestamp: time.Now(), Payload: payload})
}

// PositionEvent rebroadcasts a Position lifecycle transition (opened,
// closed, stopped out, etc.), identified by kind.
func (h *Hub) PositionEvent(kind string, payload interface{}) {
	h.Broadcast(Event{Type: kind, Timestamp: time.Now(), Payload: payload})
}

// Component wraps a Hub as a Supervisor-managed component, serving the
// websocket endpoint on addr until ctx is cancelled.
type Component struct {
	Hub  *Hub
	Addr string

	server *http.Server
}

func (c *Component) Name() string { return "telemetry_hub" }

func (c *Component) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", c.Hub.HandleWebSocket)
	c.server = &http.Server{Addr: c.Addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		if err := c.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.server.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
