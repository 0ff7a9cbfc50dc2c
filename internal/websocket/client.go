package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/pageturn/backend/internal/logger"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Ping the peer at this interval. A ping that gets no pong within
	// writeWait tears the connection down, so dead peers are detected even
	// though idle ones never send data frames.
	pingPeriod = 54 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 4 * 1024

	// Send buffer size
	sendBufferSize = 256
)

// Client represents a single WebSocket connection. The server only pushes;
// inbound frames are read solely to detect disconnects and surface pings.
type Client struct {
	conn *websocket.Conn
	hub  *Hub

	// UserID is empty for anonymous viewers.
	UserID string

	// Buffered channel of outbound messages
	send chan []byte

	ConnectedAt time.Time
	RemoteAddr  string

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		hub:         hub,
		conn:        conn,
		UserID:      userID,
		send:        make(chan []byte, sendBufferSize),
		ConnectedAt: time.Now(),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// ReadPump drains inbound frames until the connection closes, then
// unregisters the client. Incoming payloads are not routed anywhere. Reads
// carry no deadline of their own: viewers that only listen stay connected,
// and dead peers are caught by WritePump's pings.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, _, err := c.conn.Read(c.ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				logger.Log.Debug("client closed connection", logger.WithUserID(c.UserID))
			} else if c.ctx.Err() == nil {
				logger.Log.Debug("client read error",
					logger.WithUserID(c.UserID),
					zap.Error(err),
				)
				c.hub.stats.Errors.Add(1)
			}
			return
		}
	}
}

// WritePump pushes queued messages to the peer until the send channel closes,
// pinging periodically so silent connections are kept alive and dead ones are
// detected.
func (c *Client) WritePump() {
	defer c.Close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return

		case <-ticker.C:
			pingCtx, pingCancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Ping(pingCtx)
			pingCancel()
			if err != nil {
				if c.ctx.Err() == nil {
					c.hub.stats.Errors.Add(1)
				}
				return
			}

		case data, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				_ = c.conn.Close(websocket.StatusNormalClosure, "server closing")
				return
			}

			writeCtx, writeCancel := context.WithTimeout(c.ctx, writeWait)
			err := c.conn.Write(writeCtx, websocket.MessageText, data)
			writeCancel()
			if err != nil {
				if c.ctx.Err() == nil {
					c.hub.stats.Errors.Add(1)
				}
				return
			}
		}
	}
}

// Send queues a message for this client, dropping it if the buffer is full.
func (c *Client) Send(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.ErrorWithFields("failed to marshal client message", err)
		return
	}

	select {
	case c.send <- data:
	default:
	}
}

// Close tears down the connection. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
}
