package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/ilawngbayan/storybooks/internal/common/errors"
	"github.com/ilawngbayan/storybooks/pkg/logger"
	"go.uber.org/zap"
)

// MaintenanceChecker reports whether the platform is in maintenance mode
type MaintenanceChecker interface {
	MaintenanceMode(ctx context.Context) (bool, error)
}

// Maintenance answers 503 to non-admin callers while maintenance mode is on.
// It must run after AuthRequired. A failed lookup lets the request through.
func Maintenance(settings MaintenanceChecker, exemptRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := Role(c)
		for _, r := range exemptRoles {
			if r == role {
				c.Next()
				return
			}
		}

		on, err := settings.MaintenanceMode(c.Request.Context())
		if err != nil {
			logger.Warn("maintenance lookup failed", zap.Error(err))
			c.Next()
			return
		}
		if on {
			abort(c, errors.Unavailable("platform is under maintenance"))
			return
		}
		c.Next()
	}
}
