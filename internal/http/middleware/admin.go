package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminRequired gates a route group on the admin claim. The claim is
// only a fast path: moderation services re-read the user row before
// acting, so a stale token cannot moderate.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, exists := c.Get(ContextIsAdminKey)
		isAdmin, ok := raw.(bool)
		if !exists || !ok || !isAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			return
		}
		c.Next()
	}
}
