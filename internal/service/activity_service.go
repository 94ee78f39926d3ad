package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-contest-api/internal/dto"
	"github.com/noah-isme/gema-contest-api/internal/models"
	"github.com/noah-isme/gema-contest-api/internal/repository"
)

// ActivityService manages contests and assignments.
type ActivityService interface {
	Get(ctx context.Context, id uint) (dto.ActivityResponse, error)
	Create(ctx context.Context, ownerID uint, req dto.ActivityRequest) (dto.ActivityResponse, error)
	Update(ctx context.Context, id uint, actor Viewer, req dto.ActivityRequest) (dto.ActivityResponse, error)
}

type activityService struct {
	activities repository.ActivityRepository
	problems   repository.ProblemRepository
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewActivityService constructs the activity service.
func NewActivityService(activities repository.ActivityRepository, problems repository.ProblemRepository, validate *validator.Validate, logger zerolog.Logger) ActivityService {
	return &activityService{
		activities: activities,
		problems:   problems,
		validator:  validate,
		logger:     logger.With().Str("component", "activity_service").Logger(),
	}
}

func (s *activityService) Get(ctx context.Context, id uint) (dto.ActivityResponse, error) {
	activity, err := s.load(ctx, id)
	if err != nil {
		return dto.ActivityResponse{}, err
	}
	return dto.NewActivityResponse(activity), nil
}

func (s *activityService) Create(ctx context.Context, ownerID uint, req dto.ActivityRequest) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityResponse{}, err
	}

	activity := models.Activity{OwnerID: ownerID}
	if err := s.apply(ctx, &activity, req); err != nil {
		return dto.ActivityResponse{}, err
	}

	if err := s.activities.Create(ctx, &activity); err != nil {
		return dto.ActivityResponse{}, storeError("create activity", err)
	}

	s.logger.Info().Uint("activity_id", activity.ID).Uint("owner_id", ownerID).Str("kind", string(activity.Kind)).Msg("activity created")

	return s.Get(ctx, activity.ID)
}

// Update replaces the activity's schedule and problem list. Only the owning
// faculty member may change it.
func (s *activityService) Update(ctx context.Context, id uint, actor Viewer, req dto.ActivityRequest) (dto.ActivityResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ActivityResponse{}, err
	}

	activity, err := s.load(ctx, id)
	if err != nil {
		return dto.ActivityResponse{}, err
	}

	if activity.OwnerID != actor.ID {
		return dto.ActivityResponse{}, ErrForbidden
	}

	if err := s.apply(ctx, &activity, req); err != nil {
		return dto.ActivityResponse{}, err
	}

	if err := s.activities.Save(ctx, &activity); err != nil {
		return dto.ActivityResponse{}, storeError("update activity", err)
	}

	s.logger.Info().Uint("activity_id", activity.ID).Msg("activity updated")

	return s.Get(ctx, activity.ID)
}

func (s *activityService) apply(ctx context.Context, activity *models.Activity, req dto.ActivityRequest) error {
	ids := make([]uint, 0, len(req.Problems))
	seen := make(map[uint]struct{}, len(req.Problems))
	for _, entry := range req.Problems {
		if _, dup := seen[entry.ProblemID]; dup {
			return fmt.Errorf("%w: problem %d listed twice", ErrUnknownProblem, entry.ProblemID)
		}
		seen[entry.ProblemID] = struct{}{}
		ids = append(ids, entry.ProblemID)
	}

	found, err := s.problems.FindByIDs(ctx, ids)
	if err != nil {
		return storeError("resolve problems", err)
	}
	if len(found) != len(ids) {
		return ErrUnknownProblem
	}

	activity.Kind = models.ActivityKind(req.Kind)
	activity.Title = req.Title
	activity.Description = req.Description
	activity.StartTime = nil
	activity.DurationMinutes = 0
	activity.DueDate = nil

	switch activity.Kind {
	case models.ActivityKindContest:
		start := req.StartTime.UTC()
		activity.StartTime = &start
		activity.DurationMinutes = req.DurationMinutes
	case models.ActivityKindAssignment:
		due := req.DueDate.UTC()
		activity.DueDate = &due
	}

	activity.Problems = make([]models.ActivityProblem, 0, len(req.Problems))
	for idx, entry := range req.Problems {
		activity.Problems = append(activity.Problems, models.ActivityProblem{
			ProblemID: entry.ProblemID,
			Points:    entry.Points,
			Position:  idx + 1,
		})
	}

	return nil
}

func (s *activityService) load(ctx context.Context, id uint) (models.Activity, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Activity{}, ErrActivityNotFound
		}
		return models.Activity{}, storeError("load activity", err)
	}
	return activity, nil
}
