package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillforge/marketplace-server-go/pkg/cache"
)

// RateLimiter enforces a fixed-window request limit per client IP. The
// counter lives in the shared cache so the limit holds across replicas when
// Redis is configured.
type RateLimiter struct {
	store    cache.Client
	logger   *slog.Logger
	rate     int64
	duration time.Duration
}

// NewRateLimiter creates a rate limiter backed by the provided cache client.
// rate: maximum number of requests per duration window.
func NewRateLimiter(store cache.Client, logger *slog.Logger, rate int64, duration time.Duration) *RateLimiter {
	return &RateLimiter{
		store:    store,
		logger:   logger,
		rate:     rate,
		duration: duration,
	}
}

// Middleware returns a Gin middleware that enforces rate limiting.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s", c.ClientIP())

		count, err := rl.store.Increment(c.Request.Context(), key)
		if err != nil {
			// A broken cache should not take the API down with it.
			rl.logger.Warn("rate limiter store unavailable", slog.String("error", err.Error()))
			c.Next()
			return
		}

		if count == 1 {
			if err := rl.store.Expire(c.Request.Context(), key, rl.duration); err != nil {
				rl.logger.Warn("rate limiter expire failed", slog.String("error", err.Error()))
			}
		}

		if count > rl.rate {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Rate limit exceeded",
				"message": "Too many requests. Please try again later.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
