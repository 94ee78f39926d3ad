package leaderboard

import (
	"errors"
	"time"

	"github.com/noah-isme/gema-contest-api/internal/models"
)

var (
	// ErrStaleVerdict indicates the verdict judged an attempt that has since been replaced.
	ErrStaleVerdict = errors.New("verdict targets a superseded attempt")
	// ErrInvalidVerdict indicates the verdict does not carry a final outcome.
	ErrInvalidVerdict = errors.New("verdict must carry a final status")
)

// Verdict is the outcome an external judge assigned to one attempt.
type Verdict struct {
	StudentID       uint
	ProblemID       uint
	SubmittedAt     time.Time
	Status          models.SubmissionStatus
	Points          int
	ExecutionTimeMs int64
	MemoryKB        int64
	ErrorMessage    string
	Details         map[string]interface{}
}

// ApplyVerdict moves the current record of a key to the judged outcome.
// SubmittedAt must match the attempt the judge saw, compared at microsecond
// precision since that is what the store keeps.
func ApplyVerdict(record models.Submission, verdict Verdict) (models.Submission, error) {
	if !verdict.Status.IsTerminal() {
		return record, ErrInvalidVerdict
	}
	if verdict.Points < 0 || verdict.ExecutionTimeMs < 0 || verdict.MemoryKB < 0 {
		return record, ErrInvalidVerdict
	}
	if !sameInstant(record.SubmittedAt, verdict.SubmittedAt) {
		return record, ErrStaleVerdict
	}

	record.Status = verdict.Status
	record.Points = verdict.Points
	record.ExecutionTimeMs = verdict.ExecutionTimeMs
	record.MemoryKB = verdict.MemoryKB
	record.ErrorMessage = verdict.ErrorMessage
	if len(verdict.Details) > 0 {
		record.Verdict = verdict.Details
	} else {
		record.Verdict = nil
	}

	return record, nil
}

func sameInstant(a, b time.Time) bool {
	return a.Truncate(time.Microsecond).Equal(b.Truncate(time.Microsecond))
}
