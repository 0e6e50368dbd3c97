package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"peerlearn.app/server/common/logger"
	"peerlearn.app/server/internal/service"
)

const userIDKey = "user_id"

// RequireAuth resolves the session token from the auth cookie, or from an
// Authorization: Bearer header, and stores the caller's id on the context.
func RequireAuth(authService service.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := sessionToken(c, cookieName)
		if token == "" {
			abortWith(c, service.ErrUnauthenticated)
			return
		}

		userID, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			abortWith(c, err)
			return
		}

		c.Set(userIDKey, userID)
		ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{UserID: &userID})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// UserID returns the id RequireAuth stored, or 0 outside an authenticated route.
func UserID(c *gin.Context) int64 {
	return c.GetInt64(userIDKey)
}

func sessionToken(c *gin.Context, cookieName string) string {
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func abortWith(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
