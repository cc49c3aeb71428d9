package middleware

import (
	"net/http"
	"strings"
	"time"

	"go-pos-terminal/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Context keys set by the middleware.
const (
	KeyRole      = "role"
	KeyRequestID = "requestID"
)

// RequestIDHeader carries the request id back to the client.
const RequestIDHeader = "X-Request-ID"

// AuthMiddleware checks if the request carries a valid admin token
func AuthMiddleware(m *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Format: "Bearer <token>"
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must start with Bearer"})
			return
		}

		claims, err := m.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(KeyRole, claims.Role)
		c.Next()
	}
}

// RequireRole is a secondary guard that checks for specific permissions
func RequireRole(allowedRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(KeyRole)
		if !exists || role != allowedRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "You do not have permission to access this resource"})
			return
		}
		c.Next()
	}
}

// RequestLogger stamps each request with an id and logs it when done.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(KeyRequestID, id)
		c.Header(RequestIDHeader, id)

		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"request_id": id,
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency":    time.Since(start).String(),
			"client_ip":  c.ClientIP(),
		})
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			entry.WithField("errors", c.Errors.String()).Error("request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("request rejected")
		default:
			entry.Debug("request served")
		}
	}
}
