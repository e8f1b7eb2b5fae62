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

// RedemptionHandler exposes redemption requests over HTTP.
type RedemptionHandler struct {
	service service.RedemptionService
	logger  zerolog.Logger
}

// NewRedemptionHandler constructs the handler.
func NewRedemptionHandler(svc service.RedemptionService, logger zerolog.Logger) *RedemptionHandler {
	return &RedemptionHandler{
		service: svc,
		logger:  logger.With().Str("component", "redemption_handler").Logger(),
	}
}

// Register attaches redemption endpoints to the router group.
func (h *RedemptionHandler) Register(router fiber.Router) {
	managers := middleware.RequireRole(workflow.RoleSuccessOps, workflow.RolePresident)

	router.Post("", middleware.RequireRole(workflow.RolePresident), h.create)
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Put("/:id", managers, h.update)
	router.Put("/:id/decision", middleware.RequireRole(workflow.RoleSuccessOps, workflow.RoleCIO), h.decide)
	router.Delete("/:id", managers, h.delete)
}

func (h *RedemptionHandler) create(c *fiber.Ctx) error {
	var payload dto.RedemptionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	result, err := h.service.Create(c.UserContext(), middleware.ActorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create redemption request")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "redemption request created successfully", result)
}

func (h *RedemptionHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := pageParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.List(c.UserContext(), dto.RedemptionListRequest{
		Page:     page,
		PageSize: pageSize,
		Society:  c.Query("society"),
		Status:   c.Query("status"),
		Name:     c.Query("name"),
		Center:   c.Query("center"),
	})
	if err != nil {
		return respondError(c, h.logger, err, "failed to list redemption requests")
	}
	return utils.OK(c, result.Items, "redemption requests fetched successfully", result.Pagination)
}

func (h *RedemptionHandler) get(c *fiber.Ctx) error {
	result, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch redemption request")
	}
	return utils.SendSuccess(c, "redemption request fetched successfully", result)
}

func (h *RedemptionHandler) update(c *fiber.Ctx) error {
	var payload dto.RedemptionUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	result, err := h.service.Update(c.UserContext(), middleware.ActorFromContext(c), c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update redemption request")
	}
	return utils.SendSuccess(c, "redemption request updated successfully", result)
}

func (h *RedemptionHandler) decide(c *fiber.Ctx) error {
	var payload dto.RedemptionDecisionRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	result, err := h.service.Decide(c.UserContext(), middleware.ActorFromContext(c), c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to decide redemption request")
	}
	return utils.SendSuccess(c, "redemption request "+result.Status, result)
}

func (h *RedemptionHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), middleware.ActorFromContext(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, err, "failed to delete redemption request")
	}
	return utils.SendSuccess(c, "redemption request deleted successfully", fiber.Map{"id": c.Params("id")})
}
