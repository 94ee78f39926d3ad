package models

import "time"

// ActivityKind distinguishes timed contests from deadline-driven assignments.
type ActivityKind string

const (
	// ActivityKindContest is a timed event with a start time and a duration.
	ActivityKindContest ActivityKind = "contest"
	// ActivityKindAssignment only has a due date.
	ActivityKindAssignment ActivityKind = "assignment"
)

// Activity is a scored collection of problems owned by a faculty member.
type Activity struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	Kind            ActivityKind      `gorm:"size:16;not null;index" json:"kind"`
	Title           string            `gorm:"size:255;not null" json:"title"`
	Description     string            `gorm:"type:text" json:"description"`
	OwnerID         uint              `gorm:"not null;index" json:"owner_id"`
	StartTime       *time.Time        `json:"start_time"`
	DurationMinutes int               `json:"duration_minutes"`
	DueDate         *time.Time        `json:"due_date"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Problems        []ActivityProblem `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"problems"`
}

// ActivityProblem links a problem into an activity with its authored point value.
type ActivityProblem struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	ActivityID uint    `gorm:"not null;uniqueIndex:idx_activity_problem" json:"activity_id"`
	ProblemID  uint    `gorm:"not null;uniqueIndex:idx_activity_problem" json:"problem_id"`
	Points     int     `gorm:"not null;default:0" json:"points"`
	Position   int     `gorm:"not null;default:0" json:"position"`
	Problem    Problem `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"problem"`
}

// IsContest reports whether the activity is a timed contest.
func (a Activity) IsContest() bool {
	return a.Kind == ActivityKindContest
}

// WindowStart returns the opening instant of the activity, if it has one.
// Assignments are open-ended and return false.
func (a Activity) WindowStart() (time.Time, bool) {
	if a.IsContest() && a.StartTime != nil {
		return *a.StartTime, true
	}
	return time.Time{}, false
}

// WindowEnd returns the closing instant of the activity. Contests close at
// StartTime+Duration, assignments at DueDate.
func (a Activity) WindowEnd() (time.Time, bool) {
	switch a.Kind {
	case ActivityKindContest:
		if a.StartTime == nil {
			return time.Time{}, false
		}
		return a.StartTime.Add(time.Duration(a.DurationMinutes) * time.Minute), true
	case ActivityKindAssignment:
		if a.DueDate == nil {
			return time.Time{}, false
		}
		return *a.DueDate, true
	default:
		return time.Time{}, false
	}
}

// IsClosed reports whether writes are no longer accepted at the reference time.
// The contest window is half-open, so a contest is closed at exactly its end.
func (a Activity) IsClosed(reference time.Time) bool {
	end, ok := a.WindowEnd()
	if !ok {
		return false
	}
	if a.IsContest() {
		return !reference.Before(end)
	}
	return reference.After(end)
}

// HasStarted reports whether the activity accepts submissions yet.
func (a Activity) HasStarted(reference time.Time) bool {
	start, ok := a.WindowStart()
	if !ok {
		return true
	}
	return !reference.Before(start)
}

// ProblemPoints returns the authored point value of a problem inside the activity.
func (a Activity) ProblemPoints(problemID uint) (int, bool) {
	for _, entry := range a.Problems {
		if entry.ProblemID == problemID {
			return entry.Points, true
		}
	}
	return 0, false
}
