package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ilawngbayan/storybooks/internal/reading/models"
)

// ListBooks returns book summaries
// GET /api/books
func (h *Handler) ListBooks(c *gin.Context) {
	books, err := h.books.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.BookListResponse{Books: books})
}

// GetBook returns a book with its pages and questions
// GET /api/books/:bookId
func (h *Handler) GetBook(c *gin.Context) {
	bookID, ok := bookIDParam(c)
	if !ok {
		return
	}

	book, err := h.books.Get(c.Request.Context(), bookID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.BookResponse{Book: book})
}
