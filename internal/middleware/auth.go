package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// BearerAuth protects an endpoint with a shared-secret bearer token.
//
// In production, an empty configured secret is a fatal misconfiguration: every
// request is rejected with 503 rather than silently bypassing auth. Outside
// production an empty secret disables the check for local development.
func BearerAuth(secret string, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := GetRequestID(c)

		if secret == "" {
			if production {
				if log := GetLogger(c); log != nil {
					log.Error("Cron secret not configured in production; rejecting request", nil, map[string]interface{}{
						"path": c.Request.URL.Path,
					})
				}
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
					"error": gin.H{
						"code":       "SERVICE_MISCONFIGURED",
						"message":    "Endpoint secret is not configured",
						"request_id": requestID,
					},
				})
				return
			}
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			if log := GetLogger(c); log != nil {
				log.Warn("Rejected request with invalid bearer token", map[string]interface{}{
					"path": c.Request.URL.Path,
					"ip":   c.ClientIP(),
				})
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":       "UNAUTHORIZED",
					"message":    "Invalid or missing bearer token",
					"request_id": requestID,
				},
			})
			return
		}

		c.Next()
	}
}
