package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-contest-api/internal/dto"
	"github.com/noah-isme/gema-contest-api/internal/leaderboard"
	"github.com/noah-isme/gema-contest-api/internal/lock"
	"github.com/noah-isme/gema-contest-api/internal/middleware"
	"github.com/noah-isme/gema-contest-api/internal/models"
	"github.com/noah-isme/gema-contest-api/internal/observability"
	"github.com/noah-isme/gema-contest-api/internal/repository"
)

const maxRecentSubmissions = 50

// SubmissionService accepts attempts, applies verdicts and serves submission history.
type SubmissionService interface {
	Submit(ctx context.Context, req dto.SubmitRequest) (dto.SubmitAck, error)
	History(ctx context.Context, activityID, studentID uint, viewer Viewer) ([]dto.SubmissionResponse, error)
	RecordVerdict(ctx context.Context, viewer Viewer, req dto.VerdictRequest) (dto.SubmissionResponse, error)
	Mine(ctx context.Context, studentID uint) ([]dto.SubmissionResponse, error)
	Stats(ctx context.Context) ([]dto.StatusCountResponse, error)
	Recent(ctx context.Context, limit int) ([]dto.SubmissionResponse, error)
}

// SubmissionOptions tunes submission intake.
type SubmissionOptions struct {
	MaxCodeBytes int
	RecentLimit  int
}

type submissionService struct {
	activities  repository.ActivityRepository
	submissions repository.SubmissionRepository
	locker      lock.Locker
	judge       JudgePublisher
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	clock       Clock
	opts        SubmissionOptions
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewSubmissionService constructs the submission service. judge may be nil.
func NewSubmissionService(
	activities repository.ActivityRepository,
	submissions repository.SubmissionRepository,
	locker lock.Locker,
	judge JudgePublisher,
	validate *validator.Validate,
	clock Clock,
	opts SubmissionOptions,
	logger zerolog.Logger,
) SubmissionService {
	if clock == nil {
		clock = SystemClock
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if opts.MaxCodeBytes <= 0 {
		opts.MaxCodeBytes = 64 * 1024
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 5
	}

	return &submissionService{
		activities:  activities,
		submissions: submissions,
		locker:      locker,
		judge:       judge,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		clock:       clock,
		opts:        opts,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/gema-contest-api/internal/service/submission"),
	}
}

func (s *submissionService) Submit(ctx context.Context, req dto.SubmitRequest) (dto.SubmitAck, error) {
	ctx, span := s.tracer.Start(ctx, "submission.submit")
	span.SetAttributes(
		attribute.Int64("submission.activity_id", int64(req.ActivityID)),
		attribute.Int64("submission.student_id", int64(req.StudentID)),
		attribute.Int64("submission.problem_id", int64(req.ProblemID)),
	)
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmitAck{}, err
	}

	if err := s.checkCode(req.Code); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid_code")
		return dto.SubmitAck{}, err
	}

	// stored timestamps carry microsecond precision and verdicts must echo them exactly
	now := s.clock.Now().UTC().Truncate(time.Microsecond)

	activity, err := s.loadActivity(ctx, req.ActivityID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "activity_lookup_failed")
		return dto.SubmitAck{}, err
	}

	logger := s.requestLogger(ctx).With().
		Uint("activity_id", activity.ID).
		Uint("student_id", req.StudentID).
		Uint("problem_id", req.ProblemID).
		Logger()

	// reject closed windows before queueing on the lock
	if err := leaderboard.CheckWindow(activity, now); err != nil {
		s.countSubmission(activity, outcomeLabel(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "window_closed")
		return dto.SubmitAck{}, err
	}

	release, err := s.locker.Acquire(ctx, lock.SubmissionKey(activity.ID, req.StudentID, req.ProblemID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lock_failed")
		if errors.Is(err, lock.ErrNotAcquired) {
			return dto.SubmitAck{}, fmt.Errorf("%w: %w", ErrBusy, err)
		}
		return dto.SubmitAck{}, storeError("acquire submission lock", err)
	}
	defer release()

	// the lock wait may have crossed the window end
	now = s.clock.Now().UTC().Truncate(time.Microsecond)

	existing, err := s.currentRecords(ctx, activity.ID, req.StudentID, req.ProblemID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		return dto.SubmitAck{}, err
	}

	_, outcome, err := leaderboard.Reconcile(activity, existing, leaderboard.Incoming{
		StudentID:   req.StudentID,
		ProblemID:   req.ProblemID,
		Code:        req.Code,
		Language:    req.Language,
		SubmittedAt: now,
	})
	if err != nil {
		s.countSubmission(activity, outcomeLabel(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "reconcile_rejected")
		return dto.SubmitAck{}, err
	}
	if len(outcome.Superseded) > 0 {
		logger.Warn().Interface("superseded", outcome.Superseded).Msg("duplicate submission records found for key")
	}

	record := outcome.Record
	if err := s.submissions.Upsert(ctx, &record); err != nil {
		s.countSubmission(activity, "error")
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_upsert_failed")
		return dto.SubmitAck{}, storeError("upsert submission", err)
	}

	if s.judge != nil {
		if err := s.judge.PublishPending(ctx, record); err != nil {
			logger.Warn().Err(err).Uint("submission_id", record.ID).Msg("failed to hand submission to judge")
		}
	}

	s.countSubmission(activity, string(outcome.Kind))
	span.SetAttributes(attribute.String("submission.outcome", string(outcome.Kind)))
	logger.Info().Uint("submission_id", record.ID).Str("outcome", string(outcome.Kind)).Msg("submission recorded")

	return dto.SubmitAck{
		SubmissionID: record.ID,
		ActivityID:   record.ActivityID,
		ProblemID:    record.ProblemID,
		Status:       record.Status,
		Outcome:      string(outcome.Kind),
		SubmittedAt:  record.SubmittedAt,
	}, nil
}

// History lists a student's current records in an activity, most recent first.
// Students may read their own history at any time; faculty may read any
// student's history in activities they own.
func (s *submissionService) History(ctx context.Context, activityID, studentID uint, viewer Viewer) ([]dto.SubmissionResponse, error) {
	activity, err := s.loadActivity(ctx, activityID)
	if err != nil {
		return nil, err
	}

	if !canReadHistory(activity, studentID, viewer) {
		return nil, ErrForbidden
	}

	records, err := s.submissions.FindByActivityAndStudent(ctx, activityID, studentID)
	if err != nil {
		return nil, storeError("list submission history", err)
	}

	return dto.NewSubmissionResponseSlice(records, true), nil
}

func canReadHistory(activity models.Activity, studentID uint, viewer Viewer) bool {
	switch middleware.CanonicalRole(viewer.Role) {
	case middleware.RoleStudent:
		return viewer.ID == studentID
	case middleware.RoleFaculty:
		return viewer.ID == activity.OwnerID
	default:
		return false
	}
}

// RecordVerdict applies a judge outcome to the current record of a key. Late
// verdicts for in-window attempts are accepted after the activity closes.
// Only the judge or the activity's owning faculty may post verdicts.
func (s *submissionService) RecordVerdict(ctx context.Context, viewer Viewer, req dto.VerdictRequest) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.record_verdict")
	span.SetAttributes(
		attribute.Int64("verdict.activity_id", int64(req.ActivityID)),
		attribute.String("verdict.status", req.Status),
	)
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation_failed")
		return dto.SubmissionResponse{}, err
	}

	activity, err := s.loadActivity(ctx, req.ActivityID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "activity_lookup_failed")
		return dto.SubmissionResponse{}, err
	}

	if !canJudge(activity, viewer) {
		span.SetStatus(codes.Error, "forbidden")
		s.requestLogger(ctx).Warn().
			Uint("activity_id", activity.ID).
			Uint("viewer_id", viewer.ID).
			Str("viewer_role", viewer.Role).
			Msg("verdict rejected for non-owner")
		return dto.SubmissionResponse{}, ErrForbidden
	}

	release, err := s.locker.Acquire(ctx, lock.SubmissionKey(activity.ID, req.StudentID, req.ProblemID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lock_failed")
		if errors.Is(err, lock.ErrNotAcquired) {
			return dto.SubmissionResponse{}, fmt.Errorf("%w: %w", ErrBusy, err)
		}
		return dto.SubmissionResponse{}, storeError("acquire submission lock", err)
	}
	defer release()

	current, err := s.submissions.FindByKey(ctx, activity.ID, req.StudentID, req.ProblemID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_lookup_failed")
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, storeError("load submission", err)
	}

	judged, err := leaderboard.ApplyVerdict(current, leaderboard.Verdict{
		StudentID:       req.StudentID,
		ProblemID:       req.ProblemID,
		SubmittedAt:     req.SubmittedAt,
		Status:          models.SubmissionStatus(req.Status),
		Points:          req.Points,
		ExecutionTimeMs: req.ExecutionTimeMs,
		MemoryKB:        req.MemoryKB,
		ErrorMessage:    s.sanitizer.Sanitize(req.ErrorMessage),
		Details:         req.Details,
	})
	if err != nil {
		observability.Verdicts().WithLabelValues("rejected").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "verdict_rejected")
		return dto.SubmissionResponse{}, err
	}

	if err := s.submissions.Update(ctx, &judged); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission_update_failed")
		return dto.SubmissionResponse{}, storeError("store verdict", err)
	}

	observability.Verdicts().WithLabelValues(string(judged.Status)).Inc()
	s.requestLogger(ctx).Info().
		Uint("submission_id", judged.ID).
		Str("status", string(judged.Status)).
		Msg("verdict applied")

	return dto.NewSubmissionResponse(judged, false), nil
}

func canJudge(activity models.Activity, viewer Viewer) bool {
	switch middleware.CanonicalRole(viewer.Role) {
	case middleware.RoleJudge:
		return true
	case middleware.RoleFaculty:
		return viewer.ID != 0 && viewer.ID == activity.OwnerID
	default:
		return false
	}
}

// Mine lists a student's current records across every activity, most recent first.
func (s *submissionService) Mine(ctx context.Context, studentID uint) ([]dto.SubmissionResponse, error) {
	if studentID == 0 {
		return nil, ErrForbidden
	}

	records, err := s.submissions.FindByStudent(ctx, studentID)
	if err != nil {
		return nil, storeError("list student submissions", err)
	}

	return dto.NewSubmissionResponseSlice(records, true), nil
}

func (s *submissionService) Stats(ctx context.Context) ([]dto.StatusCountResponse, error) {
	counts, err := s.submissions.CountByStatus(ctx)
	if err != nil {
		return nil, storeError("count submissions", err)
	}

	response := make([]dto.StatusCountResponse, 0, len(counts))
	for _, count := range counts {
		response = append(response, dto.StatusCountResponse{Status: count.Status, Count: count.Count})
	}

	return response, nil
}

func (s *submissionService) Recent(ctx context.Context, limit int) ([]dto.SubmissionResponse, error) {
	if limit <= 0 {
		limit = s.opts.RecentLimit
	}
	if limit > maxRecentSubmissions {
		limit = maxRecentSubmissions
	}

	records, err := s.submissions.Recent(ctx, limit)
	if err != nil {
		return nil, storeError("list recent submissions", err)
	}

	return dto.NewSubmissionResponseSlice(records, false), nil
}

func (s *submissionService) loadActivity(ctx context.Context, id uint) (models.Activity, error) {
	activity, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Activity{}, ErrActivityNotFound
		}
		return models.Activity{}, storeError("load activity", err)
	}
	return activity, nil
}

func (s *submissionService) currentRecords(ctx context.Context, activityID, studentID, problemID uint) ([]models.Submission, error) {
	record, err := s.submissions.FindByKey(ctx, activityID, studentID, problemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, storeError("load submission", err)
	}
	return []models.Submission{record}, nil
}

func (s *submissionService) checkCode(code string) error {
	if len(code) > s.opts.MaxCodeBytes {
		return fmt.Errorf("%w: exceeds %d bytes", ErrInvalidCode, s.opts.MaxCodeBytes)
	}

	for detected := mimetype.Detect([]byte(code)); detected != nil; detected = detected.Parent() {
		if detected.Is("text/plain") {
			return nil
		}
	}

	return fmt.Errorf("%w: binary content", ErrInvalidCode)
}

func (s *submissionService) countSubmission(activity models.Activity, outcome string) {
	observability.Submissions().WithLabelValues(string(activity.Kind), outcome).Inc()
}

func (s *submissionService) requestLogger(ctx context.Context) *zerolog.Logger {
	logger := s.logger
	if correlation := middleware.CorrelationIDFromContext(ctx); correlation != "" {
		logger = logger.With().Str("correlation_id", correlation).Logger()
	}
	return &logger
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, ErrDeadlinePassed):
		return "deadline_passed"
	case errors.Is(err, ErrNotStarted):
		return "not_started"
	case errors.Is(err, ErrInvalidReference):
		return "invalid_reference"
	default:
		return "error"
	}
}
