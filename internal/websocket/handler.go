package websocket

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pageturn/backend/internal/logger"
)

// Handler handles WebSocket HTTP upgrade requests
type Handler struct {
	hub             *Hub
	jwtSecret       []byte
	allowAllOrigins bool
	originPatterns  []string
}

// NewHandler creates a new WebSocket handler. allowedOrigins uses the same
// values as the CORS configuration: full origin URLs, or "*" to accept any
// origin. Browsers do not apply CORS to websocket upgrades, so the origin
// check has to happen here.
func NewHandler(hub *Hub, jwtSecret []byte, allowedOrigins []string) *Handler {
	h := &Handler{
		hub:       hub,
		jwtSecret: jwtSecret,
	}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			h.allowAllOrigins = true
			continue
		}
		// OriginPatterns match against the Origin header's host
		if u, err := url.Parse(origin); err == nil && u.Host != "" {
			h.originPatterns = append(h.originPatterns, u.Host)
		} else {
			h.originPatterns = append(h.originPatterns, origin)
		}
	}
	return h
}

// Hub returns the hub this handler registers clients with.
func (h *Handler) Hub() *Hub {
	return h.hub
}

// HandleWebSocket upgrades the connection and registers the client.
// A JWT may be supplied via ?token= or the Authorization header, but is
// optional: anonymous viewers receive broadcasts too.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	userID := h.identifyRequest(c)

	// Accept hijacks the connection after writing the 101 itself. Gin's
	// wrapped writer refuses to hijack once a response has been written, so
	// the upgrade has to go through the raw writer underneath it.
	var w http.ResponseWriter = c.Writer
	if u, ok := c.Writer.(interface{ Unwrap() http.ResponseWriter }); ok {
		w = u.Unwrap()
	}

	conn, err := websocket.Accept(w, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: h.allowAllOrigins,
		OriginPatterns:     h.originPatterns,
		CompressionMode:    websocket.CompressionContextTakeover,
	})
	if err != nil {
		logger.WarnWithFields("WebSocket upgrade failed", err)
		return
	}

	client := NewClient(h.hub, conn, userID)
	client.RemoteAddr = c.ClientIP()

	h.hub.Register(client)

	client.Send(NewMessage(MessageTypeSystem, SystemPayload{
		Event: "connected",
		Data: map[string]interface{}{
			"server_time": time.Now().UTC().UnixMilli(),
		},
	}))

	go client.WritePump()
	client.ReadPump() // blocks until the client disconnects
}

// identifyRequest extracts the user id from a JWT, if one was supplied and
// validates. Invalid or missing tokens yield an anonymous connection.
func (h *Handler) identifyRequest(c *gin.Context) string {
	tokenString := c.Query("token")
	if auth := c.GetHeader("Authorization"); auth != "" {
		tokenString = strings.TrimPrefix(auth, "Bearer ")
	}
	if tokenString == "" {
		return ""
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return ""
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	userID, _ := claims["user_id"].(string)
	return userID
}
