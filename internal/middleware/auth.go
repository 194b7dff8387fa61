package middleware

import (
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"
)

const (
	ContextUserID   = "user_id"
	ContextUserName = "user_name"
	ContextUserRole = "user_role"
)

// Auth validates the bearer token against Casdoor and stores the
// caller's identity in the request context. AllowAnonymous controls
// whether requests without a token proceed with no identity set.
type AuthConfig struct {
	Client         *casdoorsdk.Client
	AllowAnonymous bool
}

func Auth(cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			if cfg.AllowAnonymous {
				c.Next()
				return
			}
			unauthorized(c, "missing authorization token")
			return
		}

		claims, err := cfg.Client.ParseJwtToken(token)
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ContextUserID, claims.User.Id)
		c.Set(ContextUserName, claims.User.Name)
		if len(claims.User.Roles) > 0 {
			c.Set(ContextUserRole, claims.User.Roles[0].Name)
		}
		c.Next()
	}
}

// RequireRole gates a route on the authenticated caller's role.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextUserRole)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "insufficient permissions",
		})
	}
}

// UserID returns the authenticated caller's id, empty when anonymous.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}
