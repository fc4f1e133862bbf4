package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ilawngbayan/storybooks/internal/common/middleware"
	"github.com/ilawngbayan/storybooks/internal/reading/models"
)

// RecordProgress upserts reading progress: 201 on first write, 200 after
// POST /api/progress
func (h *Handler) RecordProgress(c *gin.Context) {
	var req models.ProgressRequest
	if !bindJSON(c, &req) {
		return
	}

	progress, created, err := h.progress.Record(c.Request.Context(), caller(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, models.ProgressResponse{Progress: progress})
}

// ListProgress returns the rows visible to the caller's role
// GET /api/progress
func (h *Handler) ListProgress(c *gin.Context) {
	rows, err := h.progress.List(c.Request.Context(), caller(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ProgressListResponse{Progress: rows})
}

// GetProgress returns the caller's progress on one book
// GET /api/progress/:bookId
func (h *Handler) GetProgress(c *gin.Context) {
	bookID, ok := bookIDParam(c)
	if !ok {
		return
	}

	progress, err := h.progress.Get(c.Request.Context(), middleware.UserID(c), bookID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ProgressResponse{Progress: progress})
}

// CompleteBook forces the caller's progress to 100
// POST /api/books/:bookId/complete
func (h *Handler) CompleteBook(c *gin.Context) {
	bookID, ok := bookIDParam(c)
	if !ok {
		return
	}

	progress, err := h.progress.MarkComplete(c.Request.Context(), caller(c), bookID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CompleteResponse{Success: true, Progress: progress})
}
