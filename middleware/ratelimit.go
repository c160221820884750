package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"onboarding-copilot/internal/logger"
	"onboarding-copilot/utils"
)

// RateLimit enforces a fixed-window per-client limit backed by Redis.
// When Redis is unavailable the limiter fails open so a cache outage
// never takes the API down.
func RateLimit(rdb *redis.Client, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%d", c.ClientIP(), time.Now().Unix()/int64(window.Seconds()))

		count, err := rdb.Incr(c.Request.Context(), key).Result()
		if err != nil {
			logger.Warn("Rate limiter unavailable, failing open", "error", err)
			c.Next()
			return
		}
		if count == 1 {
			rdb.Expire(c.Request.Context(), key, window)
		}

		if count > int64(maxRequests) {
			c.Header("Retry-After", fmt.Sprintf("%.0f", window.Seconds()))
			utils.RespondWithError(c, http.StatusTooManyRequests, "RateLimited",
				"Too many requests, slow down", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}
