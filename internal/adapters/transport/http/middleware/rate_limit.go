package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/Miraines/MoonyAndStarry/user-service/internal/infra/ratelimit"
	"github.com/gin-gonic/gin"
)

// NewHTTPRateLimitPerIP limits requests per remote IP.
func NewHTTPRateLimitPerIP(rps float64, burst, cacheSize int, ttl time.Duration) gin.HandlerFunc {
	limiter := ratelimit.New(rps, burst, cacheSize, ttl)

	return func(c *gin.Context) {
		host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err != nil {
			host = c.Request.RemoteAddr
		}

		if !limiter.Allow(host) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
