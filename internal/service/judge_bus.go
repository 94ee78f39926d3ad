package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-contest-api/internal/dto"
	"github.com/noah-isme/gema-contest-api/internal/middleware"
	"github.com/noah-isme/gema-contest-api/internal/models"
)

// JudgePublisher hands pending submissions to the external judge.
type JudgePublisher interface {
	PublishPending(ctx context.Context, submission models.Submission) error
}

// VerdictRecorder applies judge verdicts.
type VerdictRecorder interface {
	RecordVerdict(ctx context.Context, viewer Viewer, req dto.VerdictRequest) (dto.SubmissionResponse, error)
}

// JudgeTask is the message published for every pending attempt.
type JudgeTask struct {
	Source       string    `json:"source"`
	SubmissionID uint      `json:"submission_id"`
	ActivityID   uint      `json:"activity_id"`
	StudentID    uint      `json:"student_id"`
	ProblemID    uint      `json:"problem_id"`
	Language     string    `json:"language"`
	Code         string    `json:"code"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// JudgeBus exchanges work with the judge over NATS. A nil connection turns it into a no-op.
type JudgeBus struct {
	conn      *nats.Conn
	tasks     string
	verdicts  string
	validator *validator.Validate
	logger    zerolog.Logger
	nodeID    string
}

// NewJudgeBus wires the bus onto "<subject>.submissions" and "<subject>.verdicts".
func NewJudgeBus(conn *nats.Conn, subject string, validate *validator.Validate, logger zerolog.Logger) *JudgeBus {
	base := strings.Trim(strings.ReplaceAll(subject, ":", "."), ".")
	if base == "" {
		base = "gema.judge"
	}

	return &JudgeBus{
		conn:      conn,
		tasks:     base + ".submissions",
		verdicts:  base + ".verdicts",
		validator: validate,
		logger:    logger.With().Str("component", "judge_bus").Logger(),
		nodeID:    uuid.NewString(),
	}
}

// PublishPending implements JudgePublisher.
func (b *JudgeBus) PublishPending(ctx context.Context, submission models.Submission) error {
	if b == nil || b.conn == nil {
		return nil
	}

	payload, err := json.Marshal(JudgeTask{
		Source:       b.nodeID,
		SubmissionID: submission.ID,
		ActivityID:   submission.ActivityID,
		StudentID:    submission.StudentID,
		ProblemID:    submission.ProblemID,
		Language:     submission.Language,
		Code:         submission.Code,
		SubmittedAt:  submission.SubmittedAt,
	})
	if err != nil {
		return fmt.Errorf("encode judge task: %w", err)
	}

	msg := nats.NewMsg(b.tasks)
	msg.Data = payload
	if correlation := middleware.CorrelationIDFromContext(ctx); correlation != "" {
		msg.Header.Set(middleware.CorrelationHeader, correlation)
	}

	if err := b.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish judge task: %w", err)
	}

	return nil
}

// Start consumes verdicts until ctx is cancelled.
func (b *JudgeBus) Start(ctx context.Context, recorder VerdictRecorder) error {
	if b == nil || b.conn == nil {
		return nil
	}

	sub, err := b.conn.QueueSubscribe(b.verdicts, "gema-verdicts", func(msg *nats.Msg) {
		b.handleVerdict(ctx, recorder, msg)
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", b.verdicts, err)
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			b.logger.Warn().Err(err).Msg("failed to drain verdict subscription")
		}
	}()

	b.logger.Info().Str("subject", b.verdicts).Msg("consuming judge verdicts")
	return nil
}

func (b *JudgeBus) handleVerdict(ctx context.Context, recorder VerdictRecorder, msg *nats.Msg) {
	if msg.Header != nil {
		ctx = middleware.ContextWithCorrelation(ctx, msg.Header.Get(middleware.CorrelationHeader))
	}

	var req dto.VerdictRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		b.logger.Warn().Err(err).Msg("invalid verdict message")
		return
	}

	if b.validator != nil {
		if err := b.validator.Struct(req); err != nil {
			b.logger.Warn().Err(err).Msg("verdict message failed validation")
			return
		}
	}

	if _, err := recorder.RecordVerdict(ctx, JudgeViewer, req); err != nil {
		b.logger.Warn().
			Err(err).
			Uint("activity_id", req.ActivityID).
			Uint("student_id", req.StudentID).
			Uint("problem_id", req.ProblemID).
			Msg("verdict not applied")
	}
}
