package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OriginGuard rejects browser requests whose Origin is not allowed, so other
// web pages cannot drive the backend.
func OriginGuard(allowed func(r *http.Request) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !allowed(c.Request) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "origin not allowed"})
			return
		}
		c.Next()
	}
}
