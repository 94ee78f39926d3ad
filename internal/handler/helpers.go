package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-contest-api/internal/middleware"
	"github.com/noah-isme/gema-contest-api/internal/service"
	"github.com/noah-isme/gema-contest-api/internal/utils"
)

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value := strings.TrimSpace(c.Params(key))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid " + key)
	}
	return uint(parsed), nil
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func viewerFromContext(c *fiber.Ctx) service.Viewer {
	return service.Viewer{
		ID:   middleware.UserID(c),
		Role: middleware.UserRole(c),
	}
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

// respondError maps service errors onto HTTP statuses.
func respondError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		return utils.SendErrorCode(c, fiber.StatusBadRequest, "validation_failed", validationErrors.Error())
	case errors.Is(err, service.ErrInvalidCode):
		return utils.SendErrorCode(c, fiber.StatusBadRequest, "invalid_code", err.Error())
	case errors.Is(err, service.ErrActivityNotFound):
		return utils.SendErrorCode(c, fiber.StatusNotFound, "activity_not_found", "activity not found")
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendErrorCode(c, fiber.StatusNotFound, "submission_not_found", "submission not found")
	case errors.Is(err, service.ErrDeadlinePassed):
		return utils.SendErrorCode(c, fiber.StatusConflict, "deadline_passed", "submission deadline has passed")
	case errors.Is(err, service.ErrNotStarted):
		return utils.SendErrorCode(c, fiber.StatusConflict, "not_started", "activity has not started")
	case errors.Is(err, service.ErrStaleVerdict):
		return utils.SendErrorCode(c, fiber.StatusConflict, "stale_verdict", "verdict targets a superseded attempt")
	case errors.Is(err, service.ErrInvalidReference):
		return utils.SendErrorCode(c, fiber.StatusUnprocessableEntity, "invalid_reference", "problem is not part of the activity")
	case errors.Is(err, service.ErrUnknownProblem):
		return utils.SendErrorCode(c, fiber.StatusUnprocessableEntity, "unknown_problem", err.Error())
	case errors.Is(err, service.ErrInvalidVerdict):
		return utils.SendErrorCode(c, fiber.StatusUnprocessableEntity, "invalid_verdict", "verdict must carry a final status")
	case errors.Is(err, service.ErrForbidden):
		return utils.SendErrorCode(c, fiber.StatusForbidden, "forbidden", "insufficient permissions")
	case errors.Is(err, service.ErrBusy):
		return utils.SendRetryLater(c, time.Second, "busy", "submission is being processed, retry shortly")
	case errors.Is(err, service.ErrStoreUnavailable):
		requestLogger(logger, c).Error().Err(err).Msg("storage unavailable")
		return utils.SendRetryLater(c, 5*time.Second, "store_unavailable", "service temporarily unavailable")
	default:
		requestLogger(logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
