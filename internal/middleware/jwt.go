package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/gigworkid/gigwork_be/internal/utils"
)

// JWTProtect reads the token from the Authorization header first (the API is
// bearer-authenticated) and falls back to the gw_token cookie for browser
// flows like the OAuth callback.
func JWTProtect(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := ""
		if auth := c.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			tokenStr = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		}
		if tokenStr == "" {
			tokenStr = c.Cookies("gw_token")
		}
		if tokenStr == "" {
			return fiber.ErrUnauthorized
		}

		claims, err := utils.ParseJWT(secret, tokenStr)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		uid := strings.TrimSpace(claims.UserID)
		if uid == "" {
			return fiber.ErrUnauthorized
		}

		c.Locals("userId", uid)
		c.Locals("role", strings.ToLower(strings.TrimSpace(claims.Role)))

		return c.Next()
	}
}
