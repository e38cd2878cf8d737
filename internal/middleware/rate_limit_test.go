package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func TestRateLimitKeysByUser(t *testing.T) {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(len(c.Get("X-User"))))
		c.Locals("user_role", "client")
		return c.Next()
	})
	app.Use(RateLimit("client", 2, time.Minute))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	call := func(user string) *http.Response {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-User", user)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	require.Equal(t, fiber.StatusOK, call("a").StatusCode)
	require.Equal(t, fiber.StatusOK, call("a").StatusCode)

	limited := call("a")
	require.Equal(t, fiber.StatusTooManyRequests, limited.StatusCode)
	require.NotEmpty(t, limited.Header.Get(fiber.HeaderRetryAfter))

	var body map[string]interface{}
	decodeJSON(t, limited, &body)
	require.Equal(t, false, body["success"])

	require.Equal(t, fiber.StatusOK, call("bb").StatusCode)
}
