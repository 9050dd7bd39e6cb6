package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireAPIKey checks the X-API-Key header against the configured key.
// An empty configured key disables the check (development mode).
func RequireAPIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		if c.GetHeader("X-API-Key") != key {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing API key"})
			c.Abort()
			return
		}
		c.Next()
	}
}
