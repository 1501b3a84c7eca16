package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"remote-relay/internal/ratelimit"
)

// RateLimitGin rejects with 429 and a retry hint once limiter denies the
// client IP. The router mounts it on the login and Wake-on-LAN routes,
// each with its own Limiter; socket handshakes are not rate limited.
func RateLimitGin(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if !limiter.Allow(key) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":      "Rate limit exceeded",
				"retryAfter": limiter.RetryAfter(key),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
