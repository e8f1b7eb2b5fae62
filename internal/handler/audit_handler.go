package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/society-points-api/internal/dto"
	"github.com/noah-isme/society-points-api/internal/service"
	"github.com/noah-isme/society-points-api/internal/utils"
)

// AuditHandler exposes the audit trail of reviewer decisions.
type AuditHandler struct {
	service service.AuditService
	logger  zerolog.Logger
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(svc service.AuditService, logger zerolog.Logger) *AuditHandler {
	return &AuditHandler{
		service: svc,
		logger:  logger.With().Str("component", "audit_handler").Logger(),
	}
}

// Register attaches audit endpoints to the router group.
func (h *AuditHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *AuditHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := pageParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.List(c.UserContext(), dto.AuditLogListRequest{
		Page:       page,
		PageSize:   pageSize,
		ActorID:    c.Query("actor_id"),
		Action:     c.Query("action"),
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
	})
	if err != nil {
		return respondError(c, h.logger, err, "failed to list audit logs")
	}
	return utils.OK(c, result.Items, "audit logs fetched successfully", result.Pagination)
}
