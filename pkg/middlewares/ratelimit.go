package middleware

import (
	"fmt"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vaughnsterling/payments-api/pkg"
	"github.com/vaughnsterling/payments-api/pkg/utils"
)

// RateLimit returns Gin middleware enforcing limiter decisions keyed by
// (client IP, route path). Exceeding the limit yields 429 with Retry-After.
func RateLimit(limiter pkg.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("%s:%s", clientIP(c), c.FullPath())
		decision := limiter.CheckAndIncrement(c.Request.Context(), key)
		if !decision.Allowed {
			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, pkg.ErrorResponse{
				Code:    "APP_RATE_LIMITED",
				Message: "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

// clientIP prefers proxy headers the edge sets, falling back to Gin's resolution.
func clientIP(c *gin.Context) string {
	for _, header := range []string{"CF-Connecting-IP", "X-Forwarded-For", "X-Real-Ip"} {
		if ip := c.Request.Header.Get(header); !utils.IsEmpty(ip) {
			return ip
		}
	}
	if ip := c.ClientIP(); !utils.IsEmpty(ip) {
		return ip
	}
	return "unknown"
}
