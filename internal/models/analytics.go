package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnalyticsEventType enumerates the accepted analytics events.
type AnalyticsEventType string

const (
	EventPageView AnalyticsEventType = "page_view"
	EventPostView AnalyticsEventType = "post_view"
	EventPostRead AnalyticsEventType = "post_read"
	EventLike     AnalyticsEventType = "like"
	EventComment  AnalyticsEventType = "comment"
	EventShare    AnalyticsEventType = "share"
	EventSave     AnalyticsEventType = "save"
)

// Valid reports whether t is one of the known event types.
func (t AnalyticsEventType) Valid() bool {
	switch t {
	case EventPageView, EventPostView, EventPostRead, EventLike, EventComment, EventShare, EventSave:
		return true
	}
	return false
}

// AnalyticsEvent is a raw ingested tracking event. ClientID is required so
// anonymous sessions can be tracked; UserID is set when the caller is
// authenticated. This table is write-only from the API's point of view.
type AnalyticsEvent struct {
	ID       string             `gorm:"primaryKey;type:uuid" json:"id"`
	Event    AnalyticsEventType `gorm:"not null;index" json:"event"`
	ClientID string             `gorm:"not null;index" json:"client_id"`
	UserID   *string            `gorm:"type:uuid;index" json:"user_id,omitempty"`
	PostID   *string            `gorm:"type:uuid;index" json:"post_id,omitempty"`

	// Duration in seconds, e.g. dwell time for post_view events.
	Duration *float64 `json:"duration,omitempty"`
	Device   string   `json:"device,omitempty"`

	Metadata map[string]any `gorm:"type:jsonb;serializer:json" json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (e *AnalyticsEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}
