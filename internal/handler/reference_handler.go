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

// ReferenceHandler serves the reference data activities are valued against.
type ReferenceHandler struct {
	types      service.ActivityTypeService
	activities service.ActivityService
	roles      service.RoleService
	users      service.UserService
	logger     zerolog.Logger
}

// NewReferenceHandler constructs the handler.
func NewReferenceHandler(types service.ActivityTypeService, activities service.ActivityService, roles service.RoleService, users service.UserService, logger zerolog.Logger) *ReferenceHandler {
	return &ReferenceHandler{
		types:      types,
		activities: activities,
		roles:      roles,
		users:      users,
		logger:     logger.With().Str("component", "reference_handler").Logger(),
	}
}

// Register attaches reference data endpoints to the authenticated router.
func (h *ReferenceHandler) Register(router fiber.Router) {
	ops := middleware.RequireRole(workflow.RoleSuccessOps)

	router.Post("/activity-types", ops, h.createActivityType)
	router.Get("/activity-types", h.listActivityTypes)

	router.Post("/activities", middleware.RequireRole(workflow.RoleSuccessOps, workflow.RolePresident), h.createActivity)
	router.Get("/activities", h.listActivities)

	router.Post("/roles", ops, h.createRole)
	router.Get("/roles", h.listRoles)
	router.Put("/roles/:id", ops, h.updateRole)
	router.Delete("/roles/:id", ops, h.deleteRole)

	router.Get("/centers", h.listCenters)
}

func (h *ReferenceHandler) createActivityType(c *fiber.Ctx) error {
	var payload dto.ActivityTypeCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	result, err := h.types.Create(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create activity type")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity type created successfully", result)
}

func (h *ReferenceHandler) listActivityTypes(c *fiber.Ctx) error {
	result, err := h.types.List(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to list activity types")
	}
	return utils.SendSuccess(c, "activity types fetched successfully", result)
}

func (h *ReferenceHandler) createActivity(c *fiber.Ctx) error {
	var payload dto.ActivityCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	result, err := h.activities.Create(c.UserContext(), middleware.ActorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create activity")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity created successfully", result)
}

func (h *ReferenceHandler) listActivities(c *fiber.Ctx) error {
	page, pageSize, err := pageParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.activities.List(c.UserContext(), page, pageSize)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list activities")
	}
	return utils.OK(c, result.Items, "activities fetched successfully", result.Pagination)
}

func (h *ReferenceHandler) createRole(c *fiber.Ctx) error {
	var payload dto.RoleCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	result, err := h.roles.Create(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create role")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "role created successfully", result)
}

func (h *ReferenceHandler) listRoles(c *fiber.Ctx) error {
	page, pageSize, err := pageParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.roles.List(c.UserContext(), c.Query("q"), page, pageSize)
	if err != nil {
		return respondError(c, h.logger, err, "failed to list roles")
	}
	return utils.OK(c, result.Items, "roles fetched successfully", result.Pagination)
}

func (h *ReferenceHandler) updateRole(c *fiber.Ctx) error {
	var payload dto.RoleUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	result, err := h.roles.Update(c.UserContext(), c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update role")
	}
	return utils.SendSuccess(c, "role updated successfully", result)
}

func (h *ReferenceHandler) deleteRole(c *fiber.Ctx) error {
	if err := h.roles.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, h.logger, err, "failed to delete role")
	}
	return utils.SendSuccess(c, "role deleted successfully", fiber.Map{"id": c.Params("id")})
}

func (h *ReferenceHandler) listCenters(c *fiber.Ctx) error {
	result, err := h.users.Centers(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err, "failed to list centers")
	}
	return utils.SendSuccess(c, "centers fetched successfully", result)
}
