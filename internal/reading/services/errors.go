package services

import (
	"net/http"

	"github.com/ilawngbayan/storybooks/internal/common/errors"
)

// Domain errors. They are AppErrors so handlers can render them directly;
// compare with errors.Is.
var (
	ErrNoActiveSession  = &errors.AppError{Code: errors.CodeNotFound, Message: "No active reading session found", Status: http.StatusNotFound}
	ErrBookNotFound     = errors.NotFound("book")
	ErrProgressNotFound = errors.NotFound("progress")
	ErrUserNotFound     = errors.NotFound("user")
)
