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

// MembershipHandler lets success ops place users into societies and society offices.
type MembershipHandler struct {
	service service.MembershipService
	logger  zerolog.Logger
}

// NewMembershipHandler constructs the handler.
func NewMembershipHandler(svc service.MembershipService, logger zerolog.Logger) *MembershipHandler {
	return &MembershipHandler{
		service: svc,
		logger:  logger.With().Str("component", "membership_handler").Logger(),
	}
}

// Register attaches membership endpoints to the authenticated router. It must run before /roles/:id is registered.
func (h *MembershipHandler) Register(router fiber.Router) {
	ops := middleware.RequireRole(workflow.RoleSuccessOps)

	router.Put("/roles/society-execs", ops, h.appointExecutive)
	router.Put("/users/:id/society", ops, h.assignSociety)
}

func (h *MembershipHandler) appointExecutive(c *fiber.Ctx) error {
	var payload dto.ExecutiveAppointmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	result, err := h.service.AppointExecutive(c.UserContext(), middleware.ActorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to appoint society executive")
	}
	return utils.SendSuccess(c, "society executive appointed successfully", result)
}

func (h *MembershipHandler) assignSociety(c *fiber.Ctx) error {
	var payload dto.SocietyAssignmentRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	result, err := h.service.AssignSociety(c.UserContext(), middleware.ActorFromContext(c), c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to assign society")
	}
	return utils.SendSuccess(c, "society assigned successfully", result)
}
