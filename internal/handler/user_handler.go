package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/society-points-api/internal/dto"
	"github.com/noah-isme/society-points-api/internal/middleware"
	"github.com/noah-isme/society-points-api/internal/service"
	"github.com/noah-isme/society-points-api/internal/utils"
	"github.com/noah-isme/society-points-api/internal/workflow"
)

// UserHandler serves the current user and per-user point summaries.
type UserHandler struct {
	activities service.LoggedActivityService
	logger     zerolog.Logger
}

// NewUserHandler constructs the handler.
func NewUserHandler(activities service.LoggedActivityService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		activities: activities,
		logger:     logger.With().Str("component", "user_handler").Logger(),
	}
}

// Register attaches user endpoints to the router group.
func (h *UserHandler) Register(router fiber.Router) {
	router.Get("/me", h.me)
	router.Get("/:id/points", h.points)
}

func (h *UserHandler) me(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUserFromContext(c)
	if !ok {
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	}
	return utils.SendSuccess(c, "user fetched successfully", dto.NewUserResponse(user))
}

func (h *UserHandler) points(c *fiber.Ctx) error {
	actor := middleware.ActorFromContext(c)
	userID := c.Params("id")
	if userID == "me" {
		userID = actor.ID
	}
	if userID != actor.ID && !actor.Roles.HasAny(workflow.RoleSuccessOps, workflow.RoleCIO) {
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	}

	result, err := h.activities.UserSummary(c.UserContext(), userID)
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch points summary")
	}
	return utils.SendSuccess(c, "points summary fetched successfully", result)
}
