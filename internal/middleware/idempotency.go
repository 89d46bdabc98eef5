package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Idempotency replays cached responses for repeated mutating requests
// carrying the same X-Idempotency-Key. Creating a recurring plan twice
// because a client retried must not double-book rooms or double-bill;
// the first successful response is cached in Redis for ttl and served
// to every retry.
func Idempotency(redisClient *redis.Client, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete:
		default:
			return c.Next()
		}

		key := c.Get("X-Idempotency-Key")
		if key == "" {
			return c.Next()
		}
		cacheKey := fmt.Sprintf("idempotency:%s:%s", c.Method(), key)

		cached, err := redisClient.Get(c.UserContext(), cacheKey).Bytes()
		if err == nil && len(cached) > 0 {
			c.Set("X-Idempotent-Replay", "true")
			c.Set("Content-Type", "application/json")
			return c.Send(cached)
		}

		if err := c.Next(); err != nil {
			return err
		}

		statusCode := c.Response().StatusCode()
		if statusCode >= 200 && statusCode < 300 {
			body := c.Response().Body()
			if len(body) > 0 {
				// Fire and forget. Copy the body: fasthttp reuses it
				// after the handler returns.
				buf := make([]byte, len(body))
				copy(buf, body)
				go func() {
					bgCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					redisClient.Set(bgCtx, cacheKey, buf, ttl)
				}()
			}
		}
		return nil
	}
}
