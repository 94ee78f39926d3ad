package leaderboard

import (
	"time"

	"github.com/noah-isme/gema-contest-api/internal/models"
)

var contestStart = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func contestActivity() models.Activity {
	start := contestStart
	return models.Activity{
		ID:              7,
		Kind:            models.ActivityKindContest,
		Title:           "Spring Qualifier",
		StartTime:       &start,
		DurationMinutes: 60,
		Problems: []models.ActivityProblem{
			{ActivityID: 7, ProblemID: 1, Points: 100, Position: 1},
			{ActivityID: 7, ProblemID: 2, Points: 200, Position: 2},
			{ActivityID: 7, ProblemID: 3, Points: 300, Position: 3},
		},
	}
}

func assignmentActivity(due time.Time) models.Activity {
	return models.Activity{
		ID:      9,
		Kind:    models.ActivityKindAssignment,
		Title:   "Week 3 Lab",
		DueDate: &due,
		Problems: []models.ActivityProblem{
			{ActivityID: 9, ProblemID: 1, Points: 50, Position: 1},
		},
	}
}

func record(id, student, problem uint, status models.SubmissionStatus, execMs int64, submittedAt time.Time) models.Submission {
	return models.Submission{
		ID:              id,
		ActivityID:      7,
		StudentID:       student,
		ProblemID:       problem,
		Code:            "print(1)",
		Language:        "python",
		Status:          status,
		ExecutionTimeMs: execMs,
		SubmittedAt:     submittedAt,
	}
}
