package websocket

import "time"

// Message types for WebSocket communication
const (
	// System messages
	MessageTypeSystem = "system"
	MessageTypeError  = "error"

	// Real-time updates. All connected clients receive every articleViewed
	// event; there is no per-article subscription.
	MessageTypeArticleViewed = "articleViewed"
)

// Message represents a WebSocket message
type Message struct {
	// Type identifies the message type for routing
	Type string `json:"type"`

	// Payload contains the message-specific data
	Payload interface{} `json:"payload,omitempty"`

	// Timestamp when the message was created
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType string, payload interface{}) *Message {
	return &Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ArticleViewedPayload is the payload of an articleViewed event.
type ArticleViewedPayload struct {
	ArticleID string `json:"articleId"`
	Views     int64  `json:"views"`
}

// SystemPayload carries connection lifecycle notices.
type SystemPayload struct {
	Event   string                 `json:"event"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// ErrorPayload reports a per-connection error to the client.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
