package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/ilawngbayan/storybooks/internal/common/middleware"
	"github.com/ilawngbayan/storybooks/internal/reading/models"
	"github.com/ilawngbayan/storybooks/pkg/logger"
	"go.uber.org/zap"
)

const maxBeaconBytes = 4 << 10

// StartSession opens a reading session or resumes the open one
// POST /api/reading-sessions/start
func (h *Handler) StartSession(c *gin.Context) {
	var req models.SessionRequest
	if !bindJSON(c, &req) {
		return
	}

	session, resumed, err := h.sessions.Start(c.Request.Context(), middleware.UserID(c), middleware.Role(c), req.BookID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.StartSessionResponse{
		Success:   true,
		SessionID: session.ID,
		StartTime: session.StartTime,
		Resumed:   resumed,
	})
}

// EndSession closes the open session and folds its time into progress
// POST /api/reading-sessions/end
func (h *Handler) EndSession(c *gin.Context) {
	var req models.SessionRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.sessions.End(c.Request.Context(), middleware.UserID(c), req.BookID, models.ClosedByClient)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.EndSessionResponse{
		Success:      true,
		TotalSeconds: result.ElapsedSeconds,
		SessionID:    result.Session.ID,
		StartTime:    result.Session.StartTime,
		EndTime:      *result.Session.EndTime,
	})
}

// EndSessionBeacon is the unload-time variant of EndSession. The token rides
// in the body and the body may arrive as text/plain. It always answers 204.
// POST /api/reading-sessions/end-beacon
func (h *Handler) EndSessionBeacon(c *gin.Context) {
	defer c.Status(http.StatusNoContent)

	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBeaconBytes))
	if err != nil {
		logger.Debug("beacon body unreadable", zap.Error(err))
		return
	}

	var req models.BeaconRequest
	if err := binding.JSON.BindBody(raw, &req); err != nil {
		logger.Debug("beacon body rejected", zap.Error(err))
		return
	}

	claims, err := h.tokens.ValidateToken(req.Token)
	if err != nil {
		logger.Debug("beacon token rejected", zap.Error(err))
		return
	}

	if _, err := h.sessions.End(c.Request.Context(), claims.UserID, req.BookID, models.ClosedByBeacon); err != nil {
		logger.Debug("beacon end ignored",
			zap.Uint("user_id", claims.UserID),
			zap.Uint("book_id", req.BookID),
			zap.Error(err),
		)
	}
}

// ActiveSession returns the caller's open session for a book
// GET /api/reading-sessions/active/:bookId
func (h *Handler) ActiveSession(c *gin.Context) {
	bookID, ok := bookIDParam(c)
	if !ok {
		return
	}

	session, err := h.sessions.Active(c.Request.Context(), middleware.UserID(c), bookID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.ActiveSessionResponse{Success: true, Session: session})
}

// SessionHistory lists the caller's sessions for a book, newest first
// GET /api/reading-sessions/history/:bookId
func (h *Handler) SessionHistory(c *gin.Context) {
	bookID, ok := bookIDParam(c)
	if !ok {
		return
	}

	sessions, err := h.sessions.History(c.Request.Context(), middleware.UserID(c), bookID)
	if err != nil {
		respondError(c, err)
		return
	}
	if sessions == nil {
		sessions = []*models.ReadingSession{}
	}

	c.JSON(http.StatusOK, models.SessionHistoryResponse{Sessions: sessions})
}
