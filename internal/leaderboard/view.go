package leaderboard

import (
	"time"

	"github.com/noah-isme/gema-contest-api/internal/models"
)

// DisplayStatus summarises whether a roster member took part.
type DisplayStatus string

const (
	DisplaySubmitted DisplayStatus = "Submitted"
	DisplayPending   DisplayStatus = "Pending"
)

// DisplayRow is one roster member's line on the leaderboard.
type DisplayRow struct {
	Student         models.Student
	Status          DisplayStatus
	Rank            int
	ProblemsSolved  int
	TotalPoints     int
	TotalTime       *time.Duration
	Attempted       int
	LastSubmittedAt *time.Time
	Problems        []ProblemResult
}

// View is a roster-complete leaderboard for one activity.
type View struct {
	Activity models.Activity
	Rows     []DisplayRow
	// Orphans are ranked students missing from the roster; they are left out
	// of Rows.
	Orphans []uint
}

// BuildView merges ranked rows with the roster. Ranked students keep their
// order; everybody else follows with a zero score in roster order.
func BuildView(activity models.Activity, ranked []ParticipantRow, roster []models.Student) View {
	members := make(map[uint]models.Student, len(roster))
	for _, student := range roster {
		if _, exists := members[student.ID]; !exists {
			members[student.ID] = student
		}
	}

	view := View{
		Activity: activity,
		Rows:     make([]DisplayRow, 0, len(members)),
	}

	placed := make(map[uint]struct{}, len(members))
	for _, row := range ranked {
		student, ok := members[row.StudentID]
		if !ok {
			view.Orphans = append(view.Orphans, row.StudentID)
			continue
		}
		if _, done := placed[row.StudentID]; done {
			continue
		}
		placed[row.StudentID] = struct{}{}
		view.Rows = append(view.Rows, scoredRow(student, row))
	}

	for _, student := range roster {
		if _, done := placed[student.ID]; done {
			continue
		}
		placed[student.ID] = struct{}{}
		view.Rows = append(view.Rows, DisplayRow{
			Student: student,
			Status:  DisplayPending,
		})
	}

	return view
}

func scoredRow(student models.Student, row ParticipantRow) DisplayRow {
	display := DisplayRow{
		Student:        student,
		Status:         DisplaySubmitted,
		Rank:           row.Rank,
		ProblemsSolved: row.ProblemsSolved,
		TotalPoints:    row.TotalPoints,
		Attempted:      row.Attempted,
		Problems:       row.Problems,
	}
	if row.Credited {
		total := row.TotalTime
		display.TotalTime = &total
	}
	if !row.LastSubmittedAt.IsZero() {
		last := row.LastSubmittedAt
		display.LastSubmittedAt = &last
	}
	return display
}
