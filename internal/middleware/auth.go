package middleware

import (
	"strings"

	"twobeats/internal/auth"
	"twobeats/internal/logger"
	"twobeats/pkg/apperrors"
	"twobeats/pkg/contextkeys"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware - rejects requests without a valid bearer token
func AuthMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authorization header missing or invalid"))
			return
		}

		claims, err := tokens.Parse(tokenStr)
		if err != nil {
			apperrors.HandleError(c, apperrors.ErrInvalidToken.WithError(err))
			return
		}

		setUser(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware - sets the user when a valid token is present, never rejects
func OptionalAuthMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenStr, ok := bearerToken(c); ok {
			if claims, err := tokens.Parse(tokenStr); err == nil {
				setUser(c, claims)
			} else {
				logger.CtxDebug(c.Request.Context(), "ignoring invalid token", "error", err.Error())
			}
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user id, 0 when anonymous
func GetUserID(c *gin.Context) uint {
	v, exists := c.Get(contextkeys.UserIDKey)
	if !exists {
		return 0
	}
	id, _ := v.(uint)
	return id
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

func setUser(c *gin.Context, claims *auth.Claims) {
	c.Set(contextkeys.UserIDKey, claims.UserID)
	c.Set("username", claims.Username)
	c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))
}
