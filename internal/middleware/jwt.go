package middleware

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/onboarding-portal-api/internal/utils"
)

var errUnsupportedClaim = errors.New("unsupported claim value")

// JWTProtected validates HMAC bearer tokens and exposes the caller's identity and scope as locals:
// user_id, user_role, user_name, service_center_id and client_id.
func JWTProtected(secret string) fiber.Handler {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	key := []byte(secret)

	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "missing or malformed bearer token")
		}

		claims := jwt.MapClaims{}
		if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) { return key, nil }); err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid or expired token")
		}

		if userID, ok := firstUintClaim(claims, "sub", "user_id", "id"); ok {
			c.Locals("user_id", userID)
		}
		if role := roleClaim(claims); role != "" {
			c.Locals("user_role", role)
		}
		if name, _ := claims["name"].(string); strings.TrimSpace(name) != "" {
			c.Locals("user_name", strings.TrimSpace(name))
		}
		// Zero scope ids are ignored.
		if centerID, ok := firstUintClaim(claims, "service_center_id"); ok && centerID > 0 {
			c.Locals("service_center_id", centerID)
		}
		if clientID, ok := firstUintClaim(claims, "client_id"); ok && clientID > 0 {
			c.Locals("client_id", clientID)
		}

		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func firstUintClaim(claims jwt.MapClaims, keys ...string) (uint, bool) {
	for _, key := range keys {
		value, ok := claims[key]
		if !ok || value == nil {
			continue
		}
		if parsed, err := claimToUint(value); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

func claimToUint(value interface{}) (uint, error) {
	switch v := value.(type) {
	case float64:
		if v < 0 || v != math.Trunc(v) {
			return 0, errUnsupportedClaim
		}
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, err
		}
		return uint(parsed), nil
	default:
		return 0, errUnsupportedClaim
	}
}

// roleClaim accepts "role" as a string or "roles" as a list and returns the first usable entry.
func roleClaim(claims jwt.MapClaims) string {
	if role := normalizeRoleValue(claims["role"]); role != "" {
		return role
	}
	roles, _ := claims["roles"].([]interface{})
	for _, candidate := range roles {
		if role := normalizeRoleValue(candidate); role != "" {
			return role
		}
	}
	if single, ok := claims["roles"].(string); ok {
		return normalizeRoleValue(single)
	}
	return ""
}
