package handlers

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"
	"github.com/ilawngbayan/storybooks/internal/common/errors"
	"github.com/ilawngbayan/storybooks/internal/common/middleware"
	"github.com/ilawngbayan/storybooks/internal/reading/events"
	"github.com/ilawngbayan/storybooks/pkg/logger"
	"go.uber.org/zap"
)

// ProgressStream upgrades to a websocket that receives reading events
// GET /api/progress/stream
func (h *Handler) ProgressStream(c *gin.Context) {
	if h.stream == nil {
		middleware.JSONErrorResponse(c, errors.Unavailable("progress stream disabled"))
		return
	}

	err := h.stream.ServeWS(c.Writer, c.Request)
	switch {
	case err == nil:
	case stderrors.Is(err, events.ErrHubStopped):
		middleware.JSONErrorResponse(c, errors.Unavailable("progress stream stopped"))
	default:
		// the upgrader has already answered the peer
		logger.Debug("stream upgrade failed", zap.Error(err))
	}
}
