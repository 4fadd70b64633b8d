package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// OrgIDKey is the gin context key holding the caller's organization ID.
const OrgIDKey = "organization_id"

// RoleKey is the gin context key holding the caller's role.
const RoleKey = "role"

// Caller roles as supplied by the gateway
const (
	RoleAdmin    = "admin"
	RoleAccounts = "accounts"
	RoleQC       = "qc"
	RoleDesk     = "desk"
)

// Logger returns a gin middleware for logging requests
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 500 {
			event = log.Error()
		} else if statusCode >= 400 {
			event = log.Warn()
		}

		event.
			Int("status", statusCode).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("request_id", c.GetHeader("X-Request-ID")).
			Msg("Request processed")
	}
}

// Organization extracts the caller's organization from the X-Organization-ID
// header set by the gateway. Requests without a valid organization are
// rejected before any handler runs.
func Organization() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-Organization-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "X-Organization-ID header is required"})
			return
		}

		orgID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "X-Organization-ID must be a valid UUID"})
			return
		}

		c.Set(OrgIDKey, orgID)
		c.Set(RoleKey, c.GetHeader("X-Role"))
		c.Next()
	}
}

// RequireRole rejects requests whose gateway-supplied role is not in the
// allowed set. Admin passes everywhere.
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(RoleKey)
		if role == RoleAdmin {
			c.Next()
			return
		}
		for _, a := range allowed {
			if role == a {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform this action"})
	}
}

// OrgID returns the organization ID set by the Organization middleware.
func OrgID(c *gin.Context) uuid.UUID {
	return c.MustGet(OrgIDKey).(uuid.UUID)
}
