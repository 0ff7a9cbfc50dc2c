package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pageturn/backend/internal/util"
)

// GetComments returns the comment forest for an article.
// GET /api/v1/articles/:id/comments
func (h *Handlers) GetComments(c *gin.Context) {
	nodes, err := h.comments.FindByArticle(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, nodes)
}

// GetCommentCount returns the flat comment count for an article.
// GET /api/v1/articles/:id/comments/count
func (h *Handlers) GetCommentCount(c *gin.Context) {
	count, err := h.comments.GetCount(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// CreateComment creates a comment, optionally as a reply.
// POST /api/v1/articles/:id/comments
func (h *Handlers) CreateComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Content  string  `json:"content"`
		ParentID *string `json:"parent_id,omitempty"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	comment, err := h.comments.Create(c.Request.Context(), c.Param("id"), userID, req.Content, req.ParentID)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// LikeComment increments the comment's like counter; every call counts.
// POST /api/v1/articles/:id/comments/:commentId/like
func (h *Handlers) LikeComment(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}

	comment, err := h.comments.Like(c.Request.Context(), c.Param("commentId"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

// DeleteComment removes a comment and its replies; author only.
// DELETE /api/v1/articles/:id/comments/:commentId
func (h *Handlers) DeleteComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.comments.Delete(c.Request.Context(), c.Param("commentId"), userID); err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("commentId")})
}
