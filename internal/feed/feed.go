// Package feed pushes resolved performances to avatar-renderer clients over
// WebSocket. It is pure transport: the scene layer hands it finished
// [performer.Performance] values and the hub fans them out as JSON.
package feed

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/stagecue/stagecue/internal/observe"
	"github.com/stagecue/stagecue/internal/performer"
)

const (
	defaultWriteTimeout = 10 * time.Second

	// sendBuffer is the per-client outbound queue. A client that falls this
	// far behind is disconnected rather than allowed to stall the hub.
	sendBuffer = 32
)

// Event is the wire envelope pushed to renderer clients.
type Event struct {
	Type        string                 `json:"type"`
	Performance *performer.Performance `json:"performance,omitempty"`
}

// Hub accepts renderer WebSocket connections and broadcasts performance
// events to all of them. Safe for concurrent use.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool

	metrics      *observe.Metrics
	writeTimeout time.Duration
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Option configures a [Hub] during construction.
type Option func(*Hub)

// WithWriteTimeout bounds each client write. The default is 10 seconds.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(h *Hub) {
		if m != nil {
			h.metrics = m
		}
	}
}

// NewHub creates an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients:      make(map[*client]struct{}),
		metrics:      observe.DefaultMetrics(),
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP upgrades the request to a WebSocket connection and streams
// events until the client disconnects or the hub closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("feed: websocket accept failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(c) {
		conn.Close(websocket.StatusGoingAway, "feed closed")
		return
	}
	defer h.unregister(c)

	ctx := r.Context()

	// The feed is one-way; reads only surface disconnects.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "feed closed")
				return
			}
			wctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
			err := conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				conn.Close(websocket.StatusInternalError, "write failed")
				return
			}
		case <-readDone:
			return
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "server shutdown")
			return
		}
	}
}

// Broadcast queues a performance event for every connected client. Clients
// whose outbound queue is full are disconnected.
func (h *Hub) Broadcast(perf *performer.Performance) {
	if perf == nil {
		return
	}
	msg, err := json.Marshal(Event{Type: "performance", Performance: perf})
	if err != nil {
		slog.Error("feed: marshal event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slog.Warn("feed: dropping slow client")
			h.dropLocked(c)
		}
	}
}

// ClientCount reports the number of connected renderer clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all clients and rejects new connections.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		h.dropLocked(c)
	}
}

// register adds a client unless the hub is closed.
func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.metrics.ActiveFeedClients.Add(context.Background(), 1)
	return true
}

// unregister removes a client. Idempotent with dropLocked.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		h.dropLocked(c)
	}
}

// dropLocked removes a client and closes its send channel, which terminates
// its writer loop. Must be called with h.mu held.
func (h *Hub) dropLocked(c *client) {
	delete(h.clients, c)
	close(c.send)
	h.metrics.ActiveFeedClients.Add(context.Background(), -1)
}
