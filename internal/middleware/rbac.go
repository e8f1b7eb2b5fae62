package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/society-points-api/internal/utils"
	"github.com/noah-isme/society-points-api/internal/workflow"
)

// RequireRole ensures that the current user holds at least one of the allowed roles.
func RequireRole(roles ...workflow.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := ActorFromContext(c)
		if actor.ID == "" {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}
		if !actor.Roles.HasAny(roles...) {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
