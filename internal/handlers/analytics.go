package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pageturn/backend/internal/logger"
	"github.com/pageturn/backend/internal/metrics"
	"github.com/pageturn/backend/internal/models"
	"github.com/pageturn/backend/internal/util"
	"go.uber.org/zap"
)

// trackEventRequest is the wire form of one analytics event. ClientID is
// required so anonymous sessions can be correlated.
type trackEventRequest struct {
	Event    models.AnalyticsEventType `json:"event" binding:"required"`
	ClientID string                    `json:"client_id" binding:"required"`
	UserID   *string                   `json:"user_id,omitempty"`
	PostID   *string                   `json:"post_id,omitempty"`
	Duration *float64                  `json:"duration,omitempty"`
	Device   string                    `json:"device,omitempty"`
	Metadata map[string]any            `json:"metadata,omitempty"`
}

func (r *trackEventRequest) toModel() models.AnalyticsEvent {
	return models.AnalyticsEvent{
		Event:    r.Event,
		ClientID: r.ClientID,
		UserID:   r.UserID,
		PostID:   r.PostID,
		Duration: r.Duration,
		Device:   r.Device,
		Metadata: r.Metadata,
	}
}

// TrackEvent ingests a single analytics event.
// POST /api/v1/analytics/track
func (h *Handlers) TrackEvent(c *gin.Context) {
	var req trackEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if !req.Event.Valid() {
		util.RespondValidationError(c, "event", "unknown event type")
		return
	}

	event := req.toModel()
	if err := h.db.Create(&event).Error; err != nil {
		util.RespondInternalError(c, "failed to store event")
		return
	}

	metrics.Get().AnalyticsEventsTotal.WithLabelValues(string(event.Event)).Inc()
	c.JSON(http.StatusAccepted, gin.H{"accepted": 1})
}

// TrackEventBatch ingests a batch of analytics events. The batch is atomic:
// one invalid event rejects the whole request so clients notice bad payloads.
// POST /api/v1/analytics/track/batch
func (h *Handlers) TrackEventBatch(c *gin.Context) {
	var req struct {
		Events []trackEventRequest `json:"events" binding:"required,min=1,max=500,dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	events := make([]models.AnalyticsEvent, 0, len(req.Events))
	for i := range req.Events {
		if !req.Events[i].Event.Valid() {
			util.RespondValidationError(c, "event", "unknown event type")
			return
		}
		if req.Events[i].ClientID == "" {
			util.RespondValidationError(c, "client_id", "client_id is required")
			return
		}
		events = append(events, req.Events[i].toModel())
	}

	if err := h.db.Create(&events).Error; err != nil {
		util.RespondInternalError(c, "failed to store events")
		return
	}

	m := metrics.Get()
	for i := range events {
		m.AnalyticsEventsTotal.WithLabelValues(string(events[i].Event)).Inc()
	}

	logger.Log.Debug("analytics batch ingested", zap.Int("count", len(events)))
	c.JSON(http.StatusAccepted, gin.H{"accepted": len(events)})
}
