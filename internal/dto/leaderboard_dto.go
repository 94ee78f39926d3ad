package dto

import (
	"time"

	"github.com/noah-isme/gema-contest-api/internal/leaderboard"
	"github.com/noah-isme/gema-contest-api/internal/models"
)

// LeaderboardResponse is the roster-complete standings of one activity.
type LeaderboardResponse struct {
	Activity    ActivitySummary  `json:"activity"`
	GeneratedAt time.Time        `json:"generated_at"`
	Closed      bool             `json:"closed"`
	Rows        []LeaderboardRow `json:"rows"`
}

// LeaderboardRow is one roster member's line.
type LeaderboardRow struct {
	Rank            int                        `json:"rank"`
	Student         RosterStudent              `json:"student"`
	Status          leaderboard.DisplayStatus  `json:"status"`
	ProblemsSolved  int                        `json:"problems_solved"`
	TotalPoints     int                        `json:"total_points"`
	TotalTimeMs     *int64                     `json:"total_time_ms"`
	Attempted       int                        `json:"attempted"`
	LastSubmittedAt *time.Time                 `json:"last_submitted_at"`
	Problems        []LeaderboardProblemResult `json:"problems"`
}

// RosterStudent identifies a roster member on a leaderboard row.
type RosterStudent struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	RegNumber string `json:"reg_number"`
}

// LeaderboardProblemResult is a student's current state on one problem.
type LeaderboardProblemResult struct {
	ProblemID   uint                    `json:"problem_id"`
	Status      models.SubmissionStatus `json:"status"`
	Points      int                     `json:"points"`
	TimeMs      int64                   `json:"time_ms"`
	SubmittedAt time.Time               `json:"submitted_at"`
}

// NewLeaderboardResponse converts a built view into its wire shape.
func NewLeaderboardResponse(view leaderboard.View, generatedAt time.Time) LeaderboardResponse {
	response := LeaderboardResponse{
		Activity:    NewActivitySummary(view.Activity),
		GeneratedAt: generatedAt,
		Closed:      view.Activity.IsClosed(generatedAt),
		Rows:        make([]LeaderboardRow, 0, len(view.Rows)),
	}

	for _, row := range view.Rows {
		line := LeaderboardRow{
			Rank: row.Rank,
			Student: RosterStudent{
				ID:        row.Student.ID,
				Name:      row.Student.Name,
				Email:     row.Student.Email,
				RegNumber: row.Student.RegNumber,
			},
			Status:          row.Status,
			ProblemsSolved:  row.ProblemsSolved,
			TotalPoints:     row.TotalPoints,
			Attempted:       row.Attempted,
			LastSubmittedAt: row.LastSubmittedAt,
			Problems:        make([]LeaderboardProblemResult, 0, len(row.Problems)),
		}
		if row.TotalTime != nil {
			ms := row.TotalTime.Milliseconds()
			line.TotalTimeMs = &ms
		}
		for _, problem := range row.Problems {
			line.Problems = append(line.Problems, LeaderboardProblemResult{
				ProblemID:   problem.ProblemID,
				Status:      problem.Status,
				Points:      problem.Points,
				TimeMs:      problem.Time.Milliseconds(),
				SubmittedAt: problem.SubmittedAt,
			})
		}
		response.Rows = append(response.Rows, line)
	}

	return response
}
