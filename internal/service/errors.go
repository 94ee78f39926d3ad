package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/noah-isme/gema-contest-api/internal/leaderboard"
	"github.com/noah-isme/gema-contest-api/internal/middleware"
)

var (
	// ErrActivityNotFound indicates the activity does not exist.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrSubmissionNotFound indicates no current submission exists for the key.
	ErrSubmissionNotFound = errors.New("submission not found")
	// ErrStoreUnavailable wraps any storage failure.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrForbidden indicates the caller may not perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCode indicates the submitted source is empty, binary or too large.
	ErrInvalidCode = errors.New("invalid source code")
	// ErrBusy indicates another write to the same submission key is in flight.
	ErrBusy = errors.New("submission is being processed, retry shortly")
	// ErrUnknownProblem indicates an activity references a problem that does not exist.
	ErrUnknownProblem = errors.New("activity references unknown problem")

	ErrDeadlinePassed   = leaderboard.ErrDeadlinePassed
	ErrNotStarted       = leaderboard.ErrNotStarted
	ErrInvalidReference = leaderboard.ErrInvalidReference
	ErrStaleVerdict     = leaderboard.ErrStaleVerdict
	ErrInvalidVerdict   = leaderboard.ErrInvalidVerdict
)

func storeError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Viewer identifies who is reading or changing data.
type Viewer struct {
	ID   uint
	Role string
}

// JudgeViewer is the identity verdicts consumed from the judge bus act under.
var JudgeViewer = Viewer{Role: middleware.RoleJudge}
