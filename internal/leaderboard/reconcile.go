// Package leaderboard holds the pure submission pipeline: reconciling attempts
// into one current record per (student, problem), folding those records into
// per-student standings, ranking them and merging the ranking with the roster.
//
// Nothing in this package touches storage; callers load records, pass them in
// and persist whatever comes back.
package leaderboard

import (
	"errors"
	"time"

	"github.com/noah-isme/gema-contest-api/internal/models"
)

var (
	// ErrDeadlinePassed indicates the activity window has closed.
	ErrDeadlinePassed = errors.New("submission deadline has passed")
	// ErrNotStarted indicates the contest window has not opened yet.
	ErrNotStarted = errors.New("activity has not started")
	// ErrInvalidReference indicates the problem is not part of the activity.
	ErrInvalidReference = errors.New("problem is not part of the activity")
)

// Incoming is a new attempt by a student at one problem.
type Incoming struct {
	StudentID   uint
	ProblemID   uint
	Code        string
	Language    string
	SubmittedAt time.Time
}

// OutcomeKind tells whether reconciliation appended or replaced a record.
type OutcomeKind string

const (
	OutcomeCreated  OutcomeKind = "created"
	OutcomeReplaced OutcomeKind = "replaced"
)

// Outcome describes the effect of a reconciliation.
type Outcome struct {
	Kind   OutcomeKind
	Record models.Submission
	// Superseded lists IDs of duplicate records for the same key that were
	// folded away. The store's unique index keeps this empty in practice.
	Superseded []uint
}

// Reconcile applies an incoming attempt to the record set of an activity.
// The returned slice is a copy; existing is never modified. On error the
// original records are returned untouched.
func Reconcile(activity models.Activity, existing []models.Submission, incoming Incoming) ([]models.Submission, Outcome, error) {
	if err := CheckWindow(activity, incoming.SubmittedAt); err != nil {
		return existing, Outcome{}, err
	}
	if _, ok := activity.ProblemPoints(incoming.ProblemID); !ok {
		return existing, Outcome{}, ErrInvalidReference
	}

	updated := make([]models.Submission, 0, len(existing)+1)
	matched := -1
	var superseded []uint

	for _, record := range existing {
		if !sameKey(record, activity.ID, incoming.StudentID, incoming.ProblemID) {
			updated = append(updated, record)
			continue
		}
		if matched >= 0 {
			// keep the earliest creation slot, drop later duplicates
			if record.ID != 0 && record.ID < updated[matched].ID {
				superseded = append(superseded, updated[matched].ID)
				updated[matched] = record
			} else {
				superseded = append(superseded, record.ID)
			}
			continue
		}
		matched = len(updated)
		updated = append(updated, record)
	}

	if matched < 0 {
		record := models.Submission{
			ActivityID: activity.ID,
			StudentID:  incoming.StudentID,
			ProblemID:  incoming.ProblemID,
		}
		resetAttempt(&record, incoming)
		updated = append(updated, record)
		return updated, Outcome{Kind: OutcomeCreated, Record: record, Superseded: superseded}, nil
	}

	record := updated[matched]
	resetAttempt(&record, incoming)
	updated[matched] = record

	return updated, Outcome{Kind: OutcomeReplaced, Record: record, Superseded: superseded}, nil
}

// CheckWindow verifies that the reference time falls inside the activity window.
func CheckWindow(activity models.Activity, reference time.Time) error {
	if !activity.HasStarted(reference) {
		return ErrNotStarted
	}
	if activity.IsClosed(reference) {
		return ErrDeadlinePassed
	}
	return nil
}

func sameKey(record models.Submission, activityID, studentID, problemID uint) bool {
	return record.ActivityID == activityID && record.StudentID == studentID && record.ProblemID == problemID
}

func resetAttempt(record *models.Submission, incoming Incoming) {
	record.Code = incoming.Code
	record.Language = incoming.Language
	record.SubmittedAt = incoming.SubmittedAt
	record.Status = models.SubmissionStatusPending
	record.Points = 0
	record.ExecutionTimeMs = 0
	record.MemoryKB = 0
	record.ErrorMessage = ""
	record.Verdict = nil
}
