package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Article represents a published piece of content with engagement counters.
// Views and likes are non-negative; liked/likes are only ever mutated
// together via the engagement store's toggle operations.
type Article struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	AuthorID string `gorm:"not null;index" json:"author_id"`
	Author   User   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	Title   string `gorm:"not null" json:"title"`
	Content string `gorm:"type:text;not null" json:"content"`

	// Engagement counters
	Views int64 `gorm:"not null;default:0" json:"views"`
	Likes int64 `gorm:"not null;default:0" json:"likes"`

	// Per-article flags
	Liked      bool `gorm:"not null;default:false" json:"liked"`
	Bookmarked bool `gorm:"not null;default:false" json:"bookmarked"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
