package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/ratelimit"
	"github.com/Kilat-Pet-Delivery/service-promotion/internal/pkg/response"
)

// RateLimitConfig configures RateLimitMiddleware.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	// KeyFunc derives the bucket key. Defaults to the client IP.
	KeyFunc func(c *gin.Context) string
}

// RateLimitMiddleware rejects requests above the configured rate with 429.
// Limiter failures let the request through.
func RateLimitMiddleware(limiter ratelimit.Limiter, cfg RateLimitConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := ""
		if cfg.KeyFunc != nil {
			key = cfg.KeyFunc(c)
		}
		if key == "" {
			key = c.ClientIP()
		}
		key = c.FullPath() + ":" + key

		allowed, err := limiter.Allow(c.Request.Context(), key, cfg.Limit, cfg.Window)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !allowed {
			response.Fail(c, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
			return
		}
		c.Next()
	}
}
