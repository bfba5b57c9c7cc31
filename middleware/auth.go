package middleware

import (
	"log"
	"strings"

	"hvac-portal-system/models"

	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware extracts the user identity and role set by the Gateway
// (X-User-ID / X-User-Role headers). Routes grouped under it require an
// authenticated identity; requests without one get a 401.
func UserContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := strings.TrimSpace(c.Get("X-User-ID"))
		roleStr := strings.TrimSpace(c.Get("X-User-Role"))

		if userID == "" {
			log.Printf("❌ [USER_CTX] X-User-ID missing on secured route: %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing X-User-ID — request must come through gateway with auth context",
			})
		}

		if !models.ValidRole(roleStr) {
			log.Printf("❌ [USER_CTX] unknown role %q for user %s on %s", roleStr, userID, c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "missing or unknown X-User-Role",
			})
		}

		c.Locals("user_id", userID)
		c.Locals("user_role", models.Role(roleStr))

		return c.Next()
	}
}

// RequireRole is the single authorization gate for role-restricted routes.
// It must run after UserContextMiddleware. The admin role also satisfies
// an employee requirement; the ordinary-user role is exact (staff accounts
// do not hold customer coin balances and may not redeem).
func RequireRole(required models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("user_role").(models.Role)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "no authenticated identity",
			})
		}

		if !Allowed(role, required) {
			log.Printf("🚫 [AUTHZ] role %s denied (%s required) on %s", role, required, c.Path())
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "insufficient role for this operation",
			})
		}

		return c.Next()
	}
}

// Allowed decides whether the caller's role satisfies the required one.
func Allowed(role, required models.Role) bool {
	switch required {
	case models.RoleAdmin:
		return role == models.RoleAdmin
	case models.RoleEmployee:
		return role == models.RoleEmployee || role == models.RoleAdmin
	case models.RoleUser:
		return role == models.RoleUser
	}
	return false
}

// UserID returns the authenticated user's ID from the request context.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
