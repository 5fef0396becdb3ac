package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/worldofhackaton/internal/actorctx"
	"github.com/geocoder89/worldofhackaton/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	VerifySessionToken(token string) (*auth.Claims, error)
}

type AuthMiddleware struct {
	jwt TokenVerifier
}

func NewAuthMiddleware(jwt TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortError(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
		if raw == "" {
			abortError(c, http.StatusUnauthorized, "unauthorized", "Missing or invalid session token")
			return
		}

		claims, err := m.jwt.VerifySessionToken(raw)
		if err != nil {
			abortError(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired session token")
			return
		}

		c.Set(ctxUserIDKey, claims.UserID)
		c.Set(ctxRoleKey, claims.Role)
		c.Set(ctxNameKey, claims.Name)

		// the identity workflows read the caller from the request context
		c.Request = c.Request.WithContext(actorctx.With(c.Request.Context(), actorctx.Actor{
			UserID: claims.UserID,
			Role:   claims.Role,
		}))

		c.Next()
	}
}

// Helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func RoleFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxRoleKey)
	if !ok {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}
