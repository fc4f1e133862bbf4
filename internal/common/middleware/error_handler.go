package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/ilawngbayan/storybooks/internal/common/errors"
	"github.com/ilawngbayan/storybooks/pkg/logger"
	"go.uber.org/zap"
)

// ErrorHandler middleware catches panics and converts them to proper error responses
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", c.GetString(KeyRequestID)),
					zap.String("panic", fmt.Sprint(r)),
					zap.Stack("stack"),
				)
				abort(c, errors.Internal("internal server error", ""))
			}
		}()
		c.Next()
	}
}

// JSONErrorResponse wraps errors in consistent JSON format. Internal details
// are logged, never returned.
func JSONErrorResponse(c *gin.Context, err error) {
	appErr := errors.From(err)
	if appErr.Status >= 500 {
		logger.Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("request_id", c.GetString(KeyRequestID)),
			zap.Error(err),
		)
		sanitized := *appErr
		sanitized.Details = ""
		appErr = &sanitized
	}
	c.JSON(appErr.Status, appErr)
}
