// Package websocket fans view-count updates out to every connected client.
// Delivery is best effort and at most once: no acknowledgements, no retries,
// and no replay for clients that were disconnected when an event fired.
// Uses github.com/coder/websocket.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pageturn/backend/internal/logger"
	"github.com/pageturn/backend/internal/metrics"
	"go.uber.org/zap"
)

// Hub maintains the set of active clients and broadcasts messages to them.
// It holds no per-connection application state beyond the connection itself.
type Hub struct {
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message

	mu sync.RWMutex

	stats *Stats

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Stats tracks WebSocket counters.
type Stats struct {
	TotalConnections   atomic.Int64
	ActiveConnections  atomic.Int64
	MessagesSent       atomic.Int64
	Errors             atomic.Int64
	ConnectionsDropped atomic.Int64
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *Message, 256),
		stats:      &Stats{},
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run starts the hub's main event loop
func (h *Hub) Run() {
	logger.Log.Info("WebSocket hub starting")

	for {
		select {
		case <-h.ctx.Done():
			logger.Log.Info("WebSocket hub shutting down")
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = struct{}{}
	h.stats.TotalConnections.Add(1)
	h.stats.ActiveConnections.Add(1)
	metrics.Get().WebsocketConnections.Inc()

	logger.Log.Info("client connected",
		zap.String("remote_addr", client.RemoteAddr),
		logger.WithUserID(client.UserID),
		zap.Int64("active", h.stats.ActiveConnections.Load()),
	)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)

	h.stats.ActiveConnections.Add(-1)
	metrics.Get().WebsocketConnections.Dec()

	logger.Log.Info("client disconnected",
		zap.String("remote_addr", client.RemoteAddr),
		logger.WithUserID(client.UserID),
		zap.Int64("active", h.stats.ActiveConnections.Load()),
	)
}

// broadcastMessage sends a message to all connected clients. A client whose
// send buffer is full is dropped rather than allowed to block the loop.
func (h *Hub) broadcastMessage(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		logger.ErrorWithFields("failed to marshal broadcast message", err)
		return
	}

	metrics.Get().BroadcastsTotal.Inc()

	for client := range h.clients {
		select {
		case client.send <- data:
			h.stats.MessagesSent.Add(1)
		default:
			h.stats.ConnectionsDropped.Add(1)
			metrics.Get().WebsocketDroppedClients.Inc()
			go func(c *Client) {
				h.Unregister(c)
			}(client)
		}
	}
}

// Broadcast enqueues a message for delivery to all connected clients.
// It never blocks the caller past enqueueing.
func (h *Hub) Broadcast(message *Message) {
	select {
	case h.broadcast <- message:
	case <-h.ctx.Done():
	}
}

// BroadcastArticleViewed pushes an updated view count to every connected
// client. Satisfies engagement.Broadcaster.
func (h *Hub) BroadcastArticleViewed(articleID string, views int64) {
	h.Broadcast(NewMessage(MessageTypeArticleViewed, ArticleViewedPayload{
		ArticleID: articleID,
		Views:     views,
	}))
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetStats returns a point-in-time snapshot of hub counters.
func (h *Hub) GetStats() StatsSnapshot {
	return StatsSnapshot{
		TotalConnections:   h.stats.TotalConnections.Load(),
		ActiveConnections:  h.stats.ActiveConnections.Load(),
		MessagesSent:       h.stats.MessagesSent.Load(),
		Errors:             h.stats.Errors.Load(),
		ConnectionsDropped: h.stats.ConnectionsDropped.Load(),
	}
}

// StatsSnapshot is a point-in-time snapshot of hub counters.
type StatsSnapshot struct {
	TotalConnections   int64 `json:"total_connections"`
	ActiveConnections  int64 `json:"active_connections"`
	MessagesSent       int64 `json:"messages_sent"`
	Errors             int64 `json:"errors"`
	ConnectionsDropped int64 `json:"connections_dropped"`
}

// String implements Stringer for StatsSnapshot
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"connections=%d/%d sent=%d errors=%d dropped=%d",
		s.ActiveConnections, s.TotalConnections,
		s.MessagesSent, s.Errors, s.ConnectionsDropped,
	)
}

// Shutdown gracefully shuts down the hub
func (h *Hub) Shutdown(ctx context.Context) error {
	h.cancel()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Log.Info("WebSocket hub shutdown complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}

// closeAll closes every client connection during shutdown.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	shutdownMsg := NewMessage(MessageTypeSystem, SystemPayload{Event: "server_shutdown"})
	data, _ := json.Marshal(shutdownMsg)

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
		}
		close(client.send)
	}

	logger.Log.Info("closed connections during shutdown",
		zap.Int("count", len(h.clients)),
	)
	h.clients = make(map[*Client]struct{})
}
