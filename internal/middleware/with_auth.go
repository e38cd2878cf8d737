package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/onboarding-portal-api/internal/utils"
)

// Roles understood by WithAuth. AuthRoleStaff admits admins and service-center reviewers.
const (
	AuthRoleAny           = "any"
	AuthRoleStaff         = "staff"
	AuthRoleAdmin         = "admin"
	AuthRoleServiceCenter = "service_center"
	AuthRoleClient        = "client"
)

// AuthOptions configures WithAuth.
type AuthOptions struct {
	Role           string
	AllowAnonymous bool
}

// WithAuth guards a single handler. It expects JWTProtected to have populated the caller locals.
func WithAuth(handler fiber.Handler, opts AuthOptions) fiber.Handler {
	role := normalizeRoleValue(opts.Role)
	if role == "" {
		role = AuthRoleAny
	}

	return func(c *fiber.Ctx) error {
		if c.Locals("user_id") == nil {
			if role == AuthRoleAny && opts.AllowAnonymous {
				return handler(c)
			}
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		if !roleSatisfies(role, c) {
			return utils.Fail(c, fiber.StatusForbidden, "insufficient permissions", nil)
		}
		return handler(c)
	}
}

func roleSatisfies(required string, c *fiber.Ctx) bool {
	current := normalizeRoleValue(c.Locals("user_role"))
	switch required {
	case AuthRoleAny:
		return true
	case AuthRoleStaff:
		return current == AuthRoleAdmin || current == AuthRoleServiceCenter
	case AuthRoleClient:
		// a client account is useless without the client it belongs to
		return current == AuthRoleClient && c.Locals("client_id") != nil
	default:
		return current == required
	}
}
