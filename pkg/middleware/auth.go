package middleware

import (
	"errors"
	"net/http"
	"strings"

	"cobi/auth-api/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewAuthMiddleware resolves the bearer token on incoming requests to
// an account and stores it on the context as user. Requests without a
// valid, unexpired token never reach the handler
func NewAuthMiddleware(auth *service.Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Missing or invalid Authorization header",
				"requestID": requestID,
			})
			return
		}

		user, err := auth.ResolveSession(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":     "Invalid or expired token",
					"requestID": requestID,
				})
			case errors.Is(err, service.ErrAccountNotFound):
				// The token outlived its account. Nothing revokes tokens,
				// the lookup is what catches this
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
					"error":     "User not found",
					"requestID": requestID,
				})
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":     "Internal server error",
					"requestID": requestID,
				})

				zap.L().Error("Failed to resolve session", zap.Error(err), zap.String("requestID", requestID))
			}
			return
		}

		c.Set("userID", user.ID)
		c.Set("user", user)
		c.Next()
	}
}
