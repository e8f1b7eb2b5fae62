package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/society-points-api/internal/middleware"
	"github.com/noah-isme/society-points-api/internal/service"
	"github.com/noah-isme/society-points-api/internal/utils"
)

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func pageParams(c *fiber.Ctx) (int, int, error) {
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return 0, 0, errors.New("page must be a number")
	}
	pageSize, err := parseQueryInt(c, "page_size")
	if err != nil {
		return 0, 0, errors.New("page_size must be a number")
	}
	return page, pageSize, nil
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

func invalidPayload(c *fiber.Ctx) error {
	return utils.SendError(c, fiber.StatusBadRequest, "invalid request payload")
}

// statusForError maps a domain error kind onto its HTTP status. Zero means the error is not a domain rejection.
func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrBadInput):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, service.ErrStale):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrAlreadyExists):
		return fiber.StatusConflict
	default:
		return 0
	}
}

// respondError writes domain rejections as client errors and logs everything else as a 500.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error, fallback string) error {
	if status := statusForError(err); status != 0 {
		return utils.SendError(c, status, err.Error())
	}

	requestLogger(logger, c).Error().Err(err).Str("route", c.Route().Path).Msg(fallback)
	return utils.SendError(c, fiber.StatusInternalServerError, fallback)
}
