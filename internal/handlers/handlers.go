// Package handlers contains the HTTP handlers for the API.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pageturn/backend/internal/comments"
	"github.com/pageturn/backend/internal/engagement"
	"github.com/pageturn/backend/internal/websocket"
	"gorm.io/gorm"
)

// Handlers holds the services the HTTP layer delegates to.
type Handlers struct {
	db         *gorm.DB
	engagement *engagement.Store
	comments   *comments.Service
	hub        *websocket.Hub
}

// NewHandlers creates the handler set.
func NewHandlers(db *gorm.DB, store *engagement.Store, commentSvc *comments.Service, hub *websocket.Hub) *Handlers {
	return &Handlers{
		db:         db,
		engagement: store,
		comments:   commentSvc,
		hub:        hub,
	}
}

// Health responds to health checks.
// GET /health
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"service":   "pageturn-backend",
	})
}

// WebSocketStats exposes hub counters for debugging.
// GET /api/v1/ws/stats
func (h *Handlers) WebSocketStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.hub.GetStats())
}
