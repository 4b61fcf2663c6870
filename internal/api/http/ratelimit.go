package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/jende/inventory-service/pkg/util"
)

// AuthRateLimiter throttles auth endpoints per client IP using a Redis
// counter with a TTL window. When Redis is unreachable the limiter fails
// open: losing throttling is preferable to losing logins.
func AuthRateLimiter(client *redis.Client, limit int, window time.Duration, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if client == nil || limit <= 0 {
			return c.Next()
		}

		key := fmt.Sprintf("authrl:%s:%s", c.IP(), c.Path())
		ctx := c.Context()

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			return c.Next()
		}
		if count == 1 {
			if err := client.Expire(ctx, key, window).Err(); err != nil {
				logger.Warn("rate limiter expire failed", zap.Error(err))
			}
		}
		if count > int64(limit) {
			return apperrors.NewTooManyRequests("too many attempts, retry later")
		}
		return c.Next()
	}
}
