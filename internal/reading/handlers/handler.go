// Package handlers exposes the reading service over HTTP.
package handlers

import (
	stderrors "errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ilawngbayan/storybooks/internal/common/errors"
	"github.com/ilawngbayan/storybooks/internal/common/middleware"
	"github.com/ilawngbayan/storybooks/internal/common/validation"
	"github.com/ilawngbayan/storybooks/internal/reading/events"
	"github.com/ilawngbayan/storybooks/internal/reading/models"
	"github.com/ilawngbayan/storybooks/internal/reading/services"
)

// Deps are the collaborators a Handler serves requests with.
type Deps struct {
	Sessions *services.SessionService
	Progress *services.ProgressService
	Books    *services.BookService
	Settings *services.SettingsService
	Tokens   middleware.TokenValidator
	// Stream may be nil, in which case the progress stream answers 503.
	Stream *events.Hub
	// Version is reported in the generated API document.
	Version string
}

// Handler serves the reading API
type Handler struct {
	sessions *services.SessionService
	progress *services.ProgressService
	books    *services.BookService
	settings *services.SettingsService
	tokens   middleware.TokenValidator
	stream   *events.Hub
	version  string
}

// New creates a reading API handler
func New(d Deps) *Handler {
	return &Handler{
		sessions: d.Sessions,
		progress: d.Progress,
		books:    d.Books,
		settings: d.Settings,
		tokens:   d.Tokens,
		stream:   d.Stream,
		version:  d.Version,
	}
}

func caller(c *gin.Context) services.Caller {
	return services.Caller{UserID: middleware.UserID(c), Role: middleware.Role(c)}
}

func bookIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("bookId"), 10, 32)
	if err != nil || id == 0 {
		middleware.JSONErrorResponse(c, errors.BadRequest("bookId must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.JSONErrorResponse(c, errors.Validation("invalid request body", validation.Describe(err)))
		return false
	}
	return true
}

// softErrors answer 404 with the {success:false, message} body instead of
// the AppError shape.
var softErrors = []*errors.AppError{services.ErrNoActiveSession, services.ErrBookNotFound}

// respondError renders soft not-found conditions as SoftFailure and
// everything else as an AppError.
func respondError(c *gin.Context, err error) {
	for _, soft := range softErrors {
		if stderrors.Is(err, soft) {
			c.JSON(soft.Status, models.SoftFailure{Success: false, Message: soft.Message})
			return
		}
	}
	middleware.JSONErrorResponse(c, err)
}
