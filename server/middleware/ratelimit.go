package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/authgate/errors"
	"github.com/kbukum/authgate/logger"
	"github.com/kbukum/authgate/throttle"
)

// RateLimitConfig configures the per-client request limiter.
type RateLimitConfig struct {
	Limiter throttle.Limiter
	// KeyFunc extracts the rate limit key from a request. Defaults to client IP.
	KeyFunc func(*gin.Context) string
	Log     *logger.Logger
}

// RateLimit rejects requests over the limiter's budget with 429. Limiter
// errors let the request through.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = IPBasedKey
	}
	if cfg.Log == nil {
		cfg.Log = logger.GetGlobalLogger()
	}
	log := cfg.Log.WithComponent("ratelimit")

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := cfg.KeyFunc(c)
		allowed, err := cfg.Limiter.Allow(ctx, key)
		if err != nil {
			log.WithContext(ctx).Warn("rate limiter unavailable", logger.ErrorFields("allow", err))
			c.Next()
			return
		}
		if !allowed {
			retryAfter := 0
			if ra, ok := cfg.Limiter.(throttle.RetryAfterer); ok {
				if d, err := ra.RetryAfter(ctx, key); err == nil {
					retryAfter = int(d.Seconds() + 0.999)
				}
			}
			if retryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(retryAfter))
			}
			appErr := errors.RateLimited()
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}
		c.Next()
	}
}

// IPBasedKey uses the client IP as the rate limit key.
func IPBasedKey(c *gin.Context) string {
	return "ip:" + c.ClientIP()
}
