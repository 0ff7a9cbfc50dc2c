package handlers

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pageturn/backend/internal/logger"
	"github.com/pageturn/backend/internal/models"
	"github.com/pageturn/backend/internal/util"
	"gorm.io/gorm"
)

// ListArticles returns articles newest-first with limit/offset pagination.
// GET /api/v1/articles
func (h *Handlers) ListArticles(c *gin.Context) {
	limit, offset := util.Pagination(c, 20, 100)

	var articles []models.Article
	err := h.db.Preload("Author").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&articles).Error
	if err != nil {
		util.RespondInternalError(c, "failed to load articles")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": articles,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetArticle returns a single article.
// GET /api/v1/articles/:id
func (h *Handlers) GetArticle(c *gin.Context) {
	var article models.Article
	err := h.db.Preload("Author").First(&article, "id = ?", c.Param("id")).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "article")
			return
		}
		util.RespondInternalError(c, "failed to load article")
		return
	}
	c.JSON(http.StatusOK, article)
}

// CreateArticle publishes a new article authored by the caller.
// POST /api/v1/articles
func (h *Handlers) CreateArticle(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Title   string `json:"title" binding:"required,min=1,max=300"`
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		util.RespondValidationError(c, "content", "article content is required")
		return
	}

	article := models.Article{
		AuthorID: userID,
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
	}
	if err := h.db.Create(&article).Error; err != nil {
		util.RespondInternalError(c, "failed to create article")
		return
	}

	if err := h.db.Preload("Author").First(&article, "id = ?", article.ID).Error; err != nil {
		logger.WarnWithFields("failed to reload article with author", err)
	}

	c.JSON(http.StatusCreated, article)
}

// DeleteArticle removes an article; author only.
// DELETE /api/v1/articles/:id
func (h *Handlers) DeleteArticle(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var article models.Article
	if err := h.db.First(&article, "id = ?", c.Param("id")).Error; err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			util.RespondNotFound(c, "article")
			return
		}
		util.RespondInternalError(c, "failed to load article")
		return
	}

	if article.AuthorID != userID {
		util.RespondForbidden(c, "only the article author can delete it")
		return
	}

	if err := h.db.Delete(&article).Error; err != nil {
		util.RespondInternalError(c, "failed to delete article")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": article.ID})
}

// RecordView counts a view by the caller, deduplicated per viewer within the
// dedup window. A genuine view fans the new count out to connected clients.
// POST /api/v1/articles/:id/view
func (h *Handlers) RecordView(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	article, err := h.engagement.RecordView(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// ToggleLike flips the article's liked flag and adjusts the like counter.
// POST /api/v1/articles/:id/like
func (h *Handlers) ToggleLike(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	article, err := h.engagement.ToggleLike(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// ToggleBookmark flips the article's bookmarked flag.
// POST /api/v1/articles/:id/bookmark
func (h *Handlers) ToggleBookmark(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	article, err := h.engagement.ToggleBookmark(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}
