package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-contest-api/internal/dto"
	"github.com/noah-isme/gema-contest-api/internal/middleware"
	"github.com/noah-isme/gema-contest-api/internal/service"
	"github.com/noah-isme/gema-contest-api/internal/utils"
)

// SubmissionHandler manages submission endpoints.
type SubmissionHandler struct {
	service service.SubmissionService
	logger  zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance.
func NewSubmissionHandler(service service.SubmissionService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service: service,
		logger:  logger.With().Str("component", "submission_handler").Logger(),
	}
}

// RegisterActivityRoutes attaches the per-activity routes. submitGuard runs
// before the submit endpoint, typically a rate limiter.
func (h *SubmissionHandler) RegisterActivityRoutes(router fiber.Router, submitGuard fiber.Handler) {
	if submitGuard == nil {
		submitGuard = func(c *fiber.Ctx) error { return c.Next() }
	}

	router.Post("/:id/submissions", middleware.RequireRole(middleware.RoleStudent), submitGuard, h.submit)
	router.Get("/:id/students/:studentId/submissions", h.history)
	router.Post("/:id/verdicts", middleware.RequireRole(middleware.RoleJudge, middleware.RoleFaculty), h.verdict)
}

// RegisterReports attaches the cross-activity routes: the caller's own
// submissions for students and the reporting routes for faculty.
func (h *SubmissionHandler) RegisterReports(router fiber.Router) {
	router.Get("/mine", middleware.RequireRole(middleware.RoleStudent), h.mine)
	router.Get("/stats", middleware.RequireRole(middleware.RoleFaculty), h.stats)
	router.Get("/recent", middleware.RequireRole(middleware.RoleFaculty), h.recent)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	activityID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.SubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	payload.ActivityID = activityID
	payload.StudentID = middleware.UserID(c)

	ack, err := h.service.Submit(c.UserContext(), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	status := fiber.StatusCreated
	if ack.Outcome != "created" {
		status = fiber.StatusOK
	}

	return utils.SendSuccessWithStatus(c, status, "submission received", ack)
}

func (h *SubmissionHandler) history(c *fiber.Ctx) error {
	activityID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submissions, err := h.service.History(c.UserContext(), activityID, studentID, viewerFromContext(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) verdict(c *fiber.Ctx) error {
	activityID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.VerdictRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	payload.ActivityID = activityID

	submission, err := h.service.RecordVerdict(c.UserContext(), viewerFromContext(c), payload)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "verdict recorded", submission)
}

func (h *SubmissionHandler) mine(c *fiber.Ctx) error {
	submissions, err := h.service.Mine(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission statistics", stats)
}

func (h *SubmissionHandler) recent(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil || limit < 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	submissions, err := h.service.Recent(c.UserContext(), limit)
	if err != nil {
		return respondError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "recent submissions", submissions)
}
