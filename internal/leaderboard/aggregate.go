package leaderboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/gema-contest-api/internal/models"
)

// PointsSource selects where credited points come from.
type PointsSource string

const (
	// PointsAuthored credits the point value authored on the activity.
	PointsAuthored PointsSource = "authored"
	// PointsJudge credits the points the judge stored on the submission.
	PointsJudge PointsSource = "judge"
)

// TimeSource selects how time is accumulated for credited problems.
type TimeSource string

const (
	// TimeExecution sums judge execution times.
	TimeExecution TimeSource = "execution"
	// TimeElapsed sums submittedAt minus the contest start. Activities
	// without a start fall back to execution time.
	TimeElapsed TimeSource = "elapsed"
)

// Options configures the aggregation policy.
type Options struct {
	Points PointsSource
	Time   TimeSource
}

// DefaultOptions credits authored points and execution time.
func DefaultOptions() Options {
	return Options{Points: PointsAuthored, Time: TimeExecution}
}

// ParsePointsSource validates a configured points source.
func ParsePointsSource(value string) (PointsSource, error) {
	switch PointsSource(strings.ToLower(strings.TrimSpace(value))) {
	case "", PointsAuthored:
		return PointsAuthored, nil
	case PointsJudge:
		return PointsJudge, nil
	default:
		return "", fmt.Errorf("unknown points source %q", value)
	}
}

// ParseTimeSource validates a configured time source.
func ParseTimeSource(value string) (TimeSource, error) {
	switch TimeSource(strings.ToLower(strings.TrimSpace(value))) {
	case "", TimeExecution:
		return TimeExecution, nil
	case TimeElapsed:
		return TimeElapsed, nil
	default:
		return "", fmt.Errorf("unknown time source %q", value)
	}
}

// ProblemResult is one student's current state on one problem.
type ProblemResult struct {
	ProblemID   uint
	Status      models.SubmissionStatus
	Points      int
	Time        time.Duration
	SubmittedAt time.Time
}

// Standing is the aggregate of one student's current records.
type Standing struct {
	StudentID      uint
	ProblemsSolved int
	TotalPoints    int
	TotalTime      time.Duration
	Attempted      int
	// Credited is false until at least one problem is Accepted; TotalTime is
	// meaningless without it.
	Credited        bool
	Sequence        uint
	LastSubmittedAt time.Time
	Problems        []ProblemResult
}

// Aggregation is the result of folding an activity's current records.
type Aggregation struct {
	Standings map[uint]Standing
	// Excluded holds records that do not belong to the activity's problem set.
	Excluded []models.Submission
}

type recordKey struct {
	studentID uint
	problemID uint
}

// Aggregate folds current records into per-student standings.
func Aggregate(activity models.Activity, records []models.Submission, opts Options) Aggregation {
	if opts.Points == "" {
		opts.Points = PointsAuthored
	}
	if opts.Time == "" {
		opts.Time = TimeExecution
	}

	result := Aggregation{Standings: make(map[uint]Standing)}

	current := make(map[recordKey]models.Submission, len(records))
	for _, record := range records {
		if record.ActivityID != activity.ID {
			result.Excluded = append(result.Excluded, record)
			continue
		}
		if _, ok := activity.ProblemPoints(record.ProblemID); !ok {
			result.Excluded = append(result.Excluded, record)
			continue
		}
		key := recordKey{studentID: record.StudentID, problemID: record.ProblemID}
		if previous, seen := current[key]; seen && !isNewer(record, previous) {
			continue
		}
		current[key] = record
	}

	byProblem := make(map[uint][]models.Submission, len(activity.Problems))
	for key, record := range current {
		byProblem[key.problemID] = append(byProblem[key.problemID], record)
	}

	// walking the activity's problem list keeps each student's Problems in authored order
	for _, entry := range activity.Problems {
		for _, record := range byProblem[entry.ProblemID] {
			standing := result.Standings[record.StudentID]
			standing.StudentID = record.StudentID
			foldRecord(&standing, activity, entry, record, opts)
			result.Standings[record.StudentID] = standing
		}
		delete(byProblem, entry.ProblemID)
	}

	return result
}

func foldRecord(standing *Standing, activity models.Activity, entry models.ActivityProblem, record models.Submission, opts Options) {
	standing.Attempted++
	if standing.Sequence == 0 || (record.ID != 0 && record.ID < standing.Sequence) {
		standing.Sequence = record.ID
	}
	if record.SubmittedAt.After(standing.LastSubmittedAt) {
		standing.LastSubmittedAt = record.SubmittedAt
	}

	problem := ProblemResult{
		ProblemID:   record.ProblemID,
		Status:      record.Status,
		SubmittedAt: record.SubmittedAt,
	}

	if record.IsAccepted() {
		problem.Points = creditedPoints(entry, record, opts)
		problem.Time = creditedTime(activity, record, opts)
		standing.ProblemsSolved++
		standing.TotalPoints += problem.Points
		standing.TotalTime += problem.Time
		standing.Credited = true
	}

	standing.Problems = append(standing.Problems, problem)
}

func creditedPoints(entry models.ActivityProblem, record models.Submission, opts Options) int {
	points := entry.Points
	if opts.Points == PointsJudge {
		points = record.Points
	}
	if points < 0 {
		return 0
	}
	return points
}

func creditedTime(activity models.Activity, record models.Submission, opts Options) time.Duration {
	if opts.Time == TimeElapsed {
		if start, ok := activity.WindowStart(); ok {
			elapsed := record.SubmittedAt.Sub(start)
			if elapsed < 0 {
				return 0
			}
			return elapsed
		}
	}
	if record.ExecutionTimeMs < 0 {
		return 0
	}
	return time.Duration(record.ExecutionTimeMs) * time.Millisecond
}

func isNewer(candidate, existing models.Submission) bool {
	if !candidate.SubmittedAt.Equal(existing.SubmittedAt) {
		return candidate.SubmittedAt.After(existing.SubmittedAt)
	}
	return candidate.ID > existing.ID
}
