package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/your-org/photohub/internal/models"
)

const (
	headerName   = "Authorization"
	bearerPrefix = "Bearer "
	userKey      = "auth.user"
)

// UserLookup resolves the username from a token to a stored user.
type UserLookup interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// BearerMiddleware validates the bearer token and stores the caller in the
// gin context. Browsers cannot set headers on WebSocket upgrades, so the
// token may also come from the "token" query parameter.
func BearerMiddleware(tokens *TokenManager, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := ""
		if h := c.GetHeader(headerName); strings.HasPrefix(h, bearerPrefix) {
			raw = strings.TrimSpace(strings.TrimPrefix(h, bearerPrefix))
		} else if q := c.Query("token"); q != "" {
			raw = q
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing bearer token",
			})
			return
		}

		claims, err := tokens.Verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		user, err := users.GetUserByUsername(c.Request.Context(), claims.Subject)
		if err != nil {
			slog.Error("resolve token user", "username", claims.Subject, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": "could not resolve user",
			})
			return
		}
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "user no longer exists",
			})
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

// RequireAdmin rejects callers whose role is not admin.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentUser(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "admin access required",
			})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated caller, or nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
