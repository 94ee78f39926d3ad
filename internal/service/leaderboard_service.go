package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-contest-api/internal/dto"
	"github.com/noah-isme/gema-contest-api/internal/leaderboard"
	"github.com/noah-isme/gema-contest-api/internal/observability"
	"github.com/noah-isme/gema-contest-api/internal/repository"
)

// LeaderboardService assembles roster-complete standings on demand.
type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, activityID uint) (dto.LeaderboardResponse, error)
}

type leaderboardService struct {
	activities  repository.ActivityRepository
	submissions repository.SubmissionRepository
	roster      repository.RosterProvider
	opts        leaderboard.Options
	clock       Clock
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewLeaderboardService constructs the leaderboard service.
func NewLeaderboardService(
	activities repository.ActivityRepository,
	submissions repository.SubmissionRepository,
	roster repository.RosterProvider,
	opts leaderboard.Options,
	clock Clock,
	logger zerolog.Logger,
) LeaderboardService {
	if clock == nil {
		clock = SystemClock
	}

	return &leaderboardService{
		activities:  activities,
		submissions: submissions,
		roster:      roster,
		opts:        opts,
		clock:       clock,
		logger:      logger.With().Str("component", "leaderboard_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/gema-contest-api/internal/service/leaderboard"),
	}
}

// GetLeaderboard recomputes the standings from the current records. Any
// storage failure fails the whole request; a partial board is never returned.
func (s *leaderboardService) GetLeaderboard(ctx context.Context, activityID uint) (dto.LeaderboardResponse, error) {
	ctx, span := s.tracer.Start(ctx, "leaderboard.build")
	span.SetAttributes(attribute.Int64("leaderboard.activity_id", int64(activityID)))
	defer span.End()

	started := time.Now()

	activity, err := s.activities.GetByID(ctx, activityID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "activity_lookup_failed")
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LeaderboardResponse{}, ErrActivityNotFound
		}
		return dto.LeaderboardResponse{}, storeError("load activity", err)
	}

	records, err := s.submissions.FindByActivity(ctx, activity.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.LeaderboardResponse{}, storeError("load submissions", err)
	}

	roster, err := s.roster.ListEligibleStudents(ctx, activity.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "roster_lookup_failed")
		return dto.LeaderboardResponse{}, storeError("load roster", err)
	}

	aggregation := leaderboard.Aggregate(activity, records, s.opts)
	if len(aggregation.Excluded) > 0 {
		ids := make([]uint, 0, len(aggregation.Excluded))
		for _, record := range aggregation.Excluded {
			ids = append(ids, record.ID)
		}
		observability.ExcludedRecords().Add(float64(len(ids)))
		s.logger.Warn().
			Uint("activity_id", activity.ID).
			Interface("submission_ids", ids).
			Msg("submissions reference problems outside the activity")
	}

	view := leaderboard.BuildView(activity, leaderboard.Rank(aggregation.Standings), roster)
	if len(view.Orphans) > 0 {
		s.logger.Warn().
			Uint("activity_id", activity.ID).
			Interface("student_ids", view.Orphans).
			Msg("ranked students missing from roster")
	}

	observability.LeaderboardBuild().Observe(time.Since(started).Seconds())
	span.SetAttributes(
		attribute.Int("leaderboard.rows", len(view.Rows)),
		attribute.Int("leaderboard.records", len(records)),
	)

	return dto.NewLeaderboardResponse(view, s.clock.Now().UTC()), nil
}
