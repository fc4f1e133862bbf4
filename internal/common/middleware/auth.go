package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ilawngbayan/storybooks/internal/common/auth"
	"github.com/ilawngbayan/storybooks/internal/common/errors"
)

// Context keys set by AuthRequired
const (
	KeyUserID = "user_id"
	KeyRole   = "role"
)

// TokenValidator verifies bearer tokens
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// AuthRequired rejects requests without a valid bearer token and stores the
// caller's id and role in the context.
func AuthRequired(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abort(c, errors.Unauthorized("missing or invalid authentication"))
			return
		}

		claims, err := tokens.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			abort(c, errors.Unauthorized("invalid or expired token"))
			return
		}

		c.Set(KeyUserID, claims.UserID)
		c.Set(KeyRole, claims.Role)
		c.Next()
	}
}

// RequireRole allows only callers holding one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(KeyRole)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		abort(c, errors.Forbidden("insufficient permissions"))
	}
}

// UserID returns the authenticated caller's id
func UserID(c *gin.Context) uint {
	return c.GetUint(KeyUserID)
}

// Role returns the authenticated caller's role
func Role(c *gin.Context) string {
	return c.GetString(KeyRole)
}

func abort(c *gin.Context, appErr *errors.AppError) {
	c.AbortWithStatusJSON(appErr.Status, appErr)
}
