package middleware

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/society-points-api/internal/models"
	"github.com/noah-isme/society-points-api/internal/service"
	"github.com/noah-isme/society-points-api/internal/utils"
)

const (
	currentUserKey = "current_user"
	actorKey       = "actor"
)

// UserResolver maps a verified identity onto a stored user.
type UserResolver interface {
	Resolve(ctx context.Context, identity service.Identity) (models.User, error)
}

// CurrentUser loads the authenticated user with roles and society, provisioning first-time users.
func CurrentUser(resolver UserResolver, logger zerolog.Logger) fiber.Handler {
	log := logger.With().Str("component", "current_user").Logger()

	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return utils.Fail(c, fiber.StatusUnauthorized, "authentication required", nil)
		}

		user, err := resolver.Resolve(c.UserContext(), identity)
		if err != nil {
			if errors.Is(err, service.ErrBadInput) {
				return utils.Fail(c, fiber.StatusUnauthorized, err.Error(), nil)
			}
			log.Error().Err(err).Str("correlation_id", GetCorrelationID(c)).Str("user_id", identity.Subject).Msg("failed to resolve user")
			return utils.Fail(c, fiber.StatusInternalServerError, "failed to load user", nil)
		}

		c.Locals(currentUserKey, user)
		c.Locals(actorKey, service.ActorFromUser(user))
		return c.Next()
	}
}

// CurrentUserFromContext returns the user loaded by CurrentUser.
func CurrentUserFromContext(c *fiber.Ctx) (models.User, bool) {
	user, ok := c.Locals(currentUserKey).(models.User)
	return user, ok
}

// ActorFromContext returns the actor derived from the loaded user.
func ActorFromContext(c *fiber.Ctx) service.Actor {
	if actor, ok := c.Locals(actorKey).(service.Actor); ok {
		return actor
	}
	return service.Actor{}
}
