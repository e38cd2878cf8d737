package middleware

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/noah-isme/onboarding-portal-api/internal/utils"
)

// RateLimit throttles each caller within a route group. Authenticated callers are keyed by role and
// user id, anonymous ones by IP.
func RateLimit(group string, max int, window time.Duration) fiber.Handler {
	if max <= 0 {
		max = 60
	}
	if window <= 0 {
		window = time.Minute
	}

	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return group + ":" + rateLimitSubject(c)
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.SendError(c, fiber.StatusTooManyRequests, "too many requests, retry later")
		},
	})
}

func rateLimitSubject(c *fiber.Ctx) string {
	if id := c.Locals("user_id"); id != nil {
		return fmt.Sprintf("%s:%v", normalizeRoleValue(c.Locals("user_role")), id)
	}
	return "ip:" + c.IP()
}
