package middleware

import (
	"context"
	"net/http"
	"strconv"

	"helpbridge/internal/redis"
	"helpbridge/internal/services"
	"helpbridge/internal/transport/httpdto"
	"helpbridge/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Limiter is satisfied by redis.RateLimiter.
type Limiter interface {
	Allow(ctx context.Context, action redis.Action, userID string) (*redis.RateLimitResult, error)
}

// RateLimitMiddleware limits action per authenticated user. It must run after
// AuthMiddleware. When Redis cannot answer the request is let through.
func RateLimitMiddleware(limiter Limiter, action redis.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		userID, ok := services.UserIDFromContext(c.Request.Context())
		if !ok {
			c.Next()
			return
		}

		result, err := limiter.Allow(c.Request.Context(), action, userID.String())
		if err != nil {
			logger.FromContext(c.Request.Context()).Warn("rate limit check failed",
				zap.String("action", string(action)),
				zap.Error(err),
			)
			c.Next()
			return
		}

		setRateLimitHeaders(c, result)

		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, httpdto.NewErrorResponse(string(action)+" rate limit exceeded", "RATE_LIMITED"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// setRateLimitHeaders sets standard rate limit response headers
func setRateLimitHeaders(c *gin.Context, result *redis.RateLimitResult) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(result.ResetIn.Seconds()), 10))
}
