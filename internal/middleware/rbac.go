package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lumen-edu/lumen-api/internal/utils"
)

// RequireRole rejects requests whose authenticated role is not in the allowed
// set. It expects JWTProtected to have planted user_role beforehand.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role != "" {
			allowed[role] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		role = strings.ToLower(strings.TrimSpace(role))
		if _, ok := allowed[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
