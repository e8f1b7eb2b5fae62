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

// SocietyHandler exposes society profiles and balances.
type SocietyHandler struct {
	service service.SocietyService
	logger  zerolog.Logger
}

// NewSocietyHandler constructs the handler.
func NewSocietyHandler(svc service.SocietyService, logger zerolog.Logger) *SocietyHandler {
	return &SocietyHandler{
		service: svc,
		logger:  logger.With().Str("component", "society_handler").Logger(),
	}
}

// Register attaches society endpoints to the router group.
func (h *SocietyHandler) Register(router fiber.Router) {
	ops := middleware.RequireRole(workflow.RoleSuccessOps)

	router.Post("", ops, h.create)
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Put("/:id", ops, h.update)
	router.Delete("/:id", ops, h.delete)
}

func (h *SocietyHandler) create(c *fiber.Ctx) error {
	var payload dto.SocietyCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	result, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to create society")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "society created successfully", result)
}

func (h *SocietyHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := pageParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.List(c.UserContext(), dto.SocietyListRequest{Page: page, PageSize: pageSize, Name: c.Query("name")})
	if err != nil {
		return respondError(c, h.logger, err, "failed to list societies")
	}
	return utils.OK(c, result.Items, "societies fetched successfully", result.Pagination)
}

func (h *SocietyHandler) get(c *fiber.Ctx) error {
	result, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch society")
	}
	return utils.SendSuccess(c, "society fetched successfully", result)
}

func (h *SocietyHandler) update(c *fiber.Ctx) error {
	var payload dto.SocietyUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	result, err := h.service.Update(c.UserContext(), c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to update society")
	}
	return utils.SendSuccess(c, "society updated successfully", result)
}

func (h *SocietyHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, h.logger, err, "failed to delete society")
	}
	return utils.SendSuccess(c, "society deleted successfully", fiber.Map{"id": c.Params("id")})
}
