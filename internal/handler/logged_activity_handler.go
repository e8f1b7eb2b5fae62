package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/society-points-api/internal/dto"
	"github.com/noah-isme/society-points-api/internal/middleware"
	"github.com/noah-isme/society-points-api/internal/service"
	"github.com/noah-isme/society-points-api/internal/utils"
	"github.com/noah-isme/society-points-api/internal/workflow"
)

// MoreInfoLimit throttles more-info requests per reviewer.
type MoreInfoLimit struct {
	Max    int
	Window time.Duration
}

// LoggedActivityHandler exposes the logged activity lifecycle over HTTP.
type LoggedActivityHandler struct {
	service  service.LoggedActivityService
	logger   zerolog.Logger
	moreInfo MoreInfoLimit
}

// NewLoggedActivityHandler constructs the handler.
func NewLoggedActivityHandler(svc service.LoggedActivityService, moreInfo MoreInfoLimit, logger zerolog.Logger) *LoggedActivityHandler {
	return &LoggedActivityHandler{
		service:  svc,
		logger:   logger.With().Str("component", "logged_activity_handler").Logger(),
		moreInfo: moreInfo,
	}
}

// Register attaches logged activity endpoints to the router group.
func (h *LoggedActivityHandler) Register(router fiber.Router) {
	ops := middleware.RequireRole(workflow.RoleSuccessOps)

	router.Post("", h.submit)
	router.Get("", h.list)
	router.Put("/approval", ops, h.approve)
	router.Get("/:id", h.get)
	router.Put("/:id", h.edit)
	router.Delete("/:id", h.delete)
	router.Put("/:id/review", middleware.RequireRole(workflow.RoleSecretary), h.review)
	router.Put("/:id/reject", ops, h.reject)
	router.Post("/:id/more-info", ops, middleware.RateLimit("more-info", h.moreInfo.Max, h.moreInfo.Window), h.requestInfo)
}

func (h *LoggedActivityHandler) submit(c *fiber.Ctx) error {
	var payload dto.LoggedActivityRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	result, err := h.service.Submit(c.UserContext(), middleware.ActorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to log activity")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity logged successfully", result)
}

func (h *LoggedActivityHandler) list(c *fiber.Ctx) error {
	page, pageSize, err := pageParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.List(c.UserContext(), dto.LoggedActivityListRequest{
		Page:      page,
		PageSize:  pageSize,
		Status:    c.Query("status"),
		SocietyID: c.Query("society_id"),
		UserID:    c.Query("user_id"),
	})
	if err != nil {
		return respondError(c, h.logger, err, "failed to list logged activities")
	}

	return utils.OK(c, result.Items, "logged activities fetched successfully", result.Pagination)
}

func (h *LoggedActivityHandler) get(c *fiber.Ctx) error {
	result, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to fetch logged activity")
	}
	return utils.SendSuccess(c, "logged activity fetched successfully", result)
}

func (h *LoggedActivityHandler) edit(c *fiber.Ctx) error {
	var payload dto.LoggedActivityRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	result, err := h.service.Edit(c.UserContext(), middleware.ActorFromContext(c), c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to edit logged activity")
	}
	return utils.SendSuccess(c, "activity edited successfully", result)
}

func (h *LoggedActivityHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), middleware.ActorFromContext(c), c.Params("id")); err != nil {
		return respondError(c, h.logger, err, "failed to delete logged activity")
	}
	return utils.SendSuccess(c, "logged activity deleted successfully", fiber.Map{"id": c.Params("id")})
}

func (h *LoggedActivityHandler) review(c *fiber.Ctx) error {
	var payload dto.SecretaryReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	result, err := h.service.SecretaryReview(c.UserContext(), middleware.ActorFromContext(c), c.Params("id"), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to review logged activity")
	}
	return utils.SendSuccess(c, "successfully changed status of logged activity to "+result.Status, result)
}

func (h *LoggedActivityHandler) approve(c *fiber.Ctx) error {
	var payload dto.ApprovalRequest
	if err := c.BodyParser(&payload); err != nil {
		return invalidPayload(c)
	}

	result, err := h.service.Approve(c.UserContext(), middleware.ActorFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err, "failed to approve logged activities")
	}

	message := "activities have been approved successfully"
	if len(result.Skipped) > 0 || len(result.Failed) > 0 {
		message = "some activities could not be approved"
	}
	return utils.SendSuccess(c, message, result)
}

func (h *LoggedActivityHandler) reject(c *fiber.Ctx) error {
	result, err := h.service.Reject(c.UserContext(), middleware.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, "failed to reject logged activity")
	}
	return utils.SendSuccess(c, "activity successfully rejected", result)
}

func (h *LoggedActivityHandler) requestInfo(c *fiber.Ctx) error {
	var payload dto.MoreInfoRequest
	if len(strings.TrimSpace(string(c.Body()))) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			return invalidPayload(c)
		}
	}

	if err := h.service.RequestInfo(c.UserContext(), middleware.ActorFromContext(c), c.Params("id"), payload); err != nil {
		return respondError(c, h.logger, err, "failed to request more information")
	}
	return utils.SendSuccess(c, "extra information on logged activity requested", nil)
}
