package middleware

import (
	"errors"
	"strings"

	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/models"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/pkg/jwt"
	"github.com/Department-for-Transport-Disruptions/disruption-manager/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

const ContextKeySession = "session"

// Auth returns a middleware that requires a valid session token.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := ValidateToken(extractToken(c))
		if err != nil {
			response.Unauthorized(c)
			return
		}
		c.Set(ContextKeySession, claims.Session())
		c.Next()
	}
}

// RequireAdmin rejects sessions that cannot administer their organisation.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := SessionFrom(c)
		if sess == nil {
			response.Unauthorized(c)
			return
		}
		if !sess.IsOrgAdmin && !sess.IsSystemAdmin {
			response.Forbidden(c)
			return
		}
		c.Next()
	}
}

// ValidateToken parses a raw Authorization value.
func ValidateToken(rawToken string) (*jwt.Claims, error) {
	token := NormalizeToken(rawToken)
	if token == "" {
		return nil, errors.New("token is required")
	}
	return jwt.Parse(token)
}

// SessionFrom returns the session set by Auth, or nil.
func SessionFrom(c *gin.Context) *models.Session {
	v, _ := c.Get(ContextKeySession)
	sess, _ := v.(*models.Session)
	return sess
}

func extractToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if auth != "" {
		return NormalizeToken(auth)
	}
	return NormalizeToken(c.Query("token"))
}

// NormalizeToken trims spaces and strips optional Bearer prefix.
func NormalizeToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return strings.TrimSpace(token[7:])
	}
	return token
}
