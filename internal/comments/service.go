// Package comments stores flat comment records and serves them as a forest.
// Mutation is ownership-gated: only a comment's author may delete it.
package comments

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/pageturn/backend/internal/errors"
	"github.com/pageturn/backend/internal/logger"
	"github.com/pageturn/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service is the sole mutator of comment records.
type Service struct {
	db *gorm.DB
}

// NewService creates a comment service backed by db.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// FindByArticle returns the article's comments as an ordered forest.
// Siblings follow creation order.
func (s *Service) FindByArticle(ctx context.Context, articleID string) ([]*models.CommentNode, error) {
	var rows []models.Comment
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("article_id = ?", articleID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.Infrastructure("database", err)
	}
	return BuildForest(rows), nil
}

// GetCount returns the flat comment count for an article, all depths included.
func (s *Service) GetCount(ctx context.Context, articleID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Comment{}).
		Where("article_id = ?", articleID).
		Count(&count).Error
	if err != nil {
		return 0, errors.Infrastructure("database", err)
	}
	return count, nil
}

// Create validates and persists a new comment. Content is trimmed and must be
// non-empty. A parent, when given, must be an existing comment on the same
// article; a parent from another article is a validation failure, not a 404,
// since the comment id may well exist elsewhere.
func (s *Service) Create(ctx context.Context, articleID, authorID, content string, parentID *string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.ValidationError("content", "comment content is required")
	}

	var article models.Article
	if err := s.db.WithContext(ctx).Select("id").First(&article, "id = ?", articleID).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.NotFound("article")
		}
		return nil, errors.Infrastructure("database", err)
	}

	if parentID != nil && *parentID == "" {
		parentID = nil
	}
	if parentID != nil {
		var parent models.Comment
		err := s.db.WithContext(ctx).
			First(&parent, "id = ? AND article_id = ?", *parentID, articleID).Error
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.ValidationError("parent_id", "parent comment not found")
			}
			return nil, errors.Infrastructure("database", err)
		}
	}

	comment := models.Comment{
		ArticleID: articleID,
		AuthorID:  authorID,
		Content:   content,
		ParentID:  parentID,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, errors.Infrastructure("database", err)
	}

	if err := s.db.WithContext(ctx).Preload("Author").First(&comment, "id = ?", comment.ID).Error; err != nil {
		logger.WarnWithFields("failed to reload comment with author", err)
	}

	return &comment, nil
}

// Like increments the comment's like counter by one. Every call counts;
// there is no per-user toggle state (clap semantics).
func (s *Service) Like(ctx context.Context, commentID string) (*models.Comment, error) {
	res := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ?", commentID).
		UpdateColumn("likes", gorm.Expr("likes + 1"))
	if res.Error != nil {
		return nil, errors.Infrastructure("database", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, errors.NotFound("comment")
	}

	var comment models.Comment
	if err := s.db.WithContext(ctx).Preload("Author").First(&comment, "id = ?", commentID).Error; err != nil {
		return nil, errors.Infrastructure("database", err)
	}
	return &comment, nil
}

// Delete removes a comment and its entire reply subtree. Only the author may
// delete; orphaned replies with a dangling parent_id are never left behind.
// Collection and deletion run in one transaction so a reply created while the
// subtree is being gathered cannot survive its parent.
func (s *Service) Delete(ctx context.Context, commentID, requesterID string) error {
	var comment models.Comment
	if err := s.db.WithContext(ctx).First(&comment, "id = ?", commentID).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.NotFound("comment")
		}
		return errors.Infrastructure("database", err)
	}

	if comment.AuthorID != requesterID {
		return errors.Forbidden("only the comment author can delete it")
	}

	var subtreeSize int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids, err := collectSubtree(tx, commentID)
		if err != nil {
			return err
		}
		subtreeSize = len(ids)
		if err := tx.Delete(&models.Comment{}, "id IN ?", ids).Error; err != nil {
			return errors.Infrastructure("database", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Log.Info("comment deleted",
		zap.String("comment_id", commentID),
		logger.WithUserID(requesterID),
		zap.Int("subtree_size", subtreeSize),
	)
	return nil
}

// collectSubtree gathers the ids of a comment and all its descendants,
// expanding one depth level per query.
func collectSubtree(tx *gorm.DB, rootID string) ([]string, error) {
	ids := []string{}
	frontier := []string{rootID}
	for len(frontier) > 0 {
		ids = append(ids, frontier...)

		var children []string
		err := tx.Model(&models.Comment{}).
			Where("parent_id IN ?", frontier).
			Pluck("id", &children).Error
		if err != nil {
			return nil, errors.Infrastructure("database", err)
		}
		frontier = children
	}
	return ids, nil
}
