package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-contest-api/internal/service"
	"github.com/noah-isme/gema-contest-api/internal/utils"
)

// LeaderboardHandler serves activity standings.
type LeaderboardHandler struct {
	service service.LeaderboardService
	logger  zerolog.Logger
}

// NewLeaderboardHandler builds a leaderboard handler.
func NewLeaderboardHandler(service service.LeaderboardService, logger zerolog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{
		service: service,
		logger:  logger.With().Str("component", "leaderboard_handler").Logger(),
	}
}

// Register attaches the routes to the activities group.
func (h *LeaderboardHandler) Register(router fiber.Router) {
	router.Get("/:id/leaderboard", h.get)
}

func (h *LeaderboardHandler) get(c *fiber.Ctx) error {
	activityID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	board, err := h.service.GetLeaderboard(c.UserContext(), activityID)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	c.Set(fiber.HeaderCacheControl, "no-store")
	return utils.SendSuccess(c, "leaderboard retrieved", board)
}
