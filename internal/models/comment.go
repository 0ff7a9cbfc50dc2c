package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is a flat comment record. Threading comes from ParentID, which is
// null for top-level comments and must reference a comment on the same
// article. Nesting is reconstructed on read, never stored.
type Comment struct {
	ID        string  `gorm:"primaryKey;type:uuid" json:"id"`
	ArticleID string  `gorm:"not null;index" json:"article_id"`
	Article   Article `gorm:"foreignKey:ArticleID" json:"-"`
	AuthorID  string  `gorm:"not null;index" json:"author_id"`
	Author    User    `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	Content string `gorm:"type:text;not null" json:"content"`

	ParentID *string `gorm:"type:uuid;index" json:"parent_id,omitempty"`

	// Clap-style counter: every like request increments, no per-user state.
	Likes int64 `gorm:"not null;default:0" json:"likes"`

	// GORM fields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CommentNode is a Comment with its children attached, built by the comments
// service for display. It is derived state and is never persisted.
type CommentNode struct {
	Comment
	Replies []*CommentNode `json:"replies"`
}
