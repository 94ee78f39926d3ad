package dto

import (
	"time"

	"github.com/noah-isme/gema-contest-api/internal/models"
)

// ActivityProblemRequest attaches a problem to an activity.
type ActivityProblemRequest struct {
	ProblemID uint `json:"problem_id" validate:"required,gt=0"`
	Points    int  `json:"points" validate:"gte=0"`
}

// ActivityRequest creates or updates a contest or assignment.
type ActivityRequest struct {
	Kind            string                   `json:"kind" validate:"required,oneof=contest assignment"`
	Title           string                   `json:"title" validate:"required,min=3,max=255"`
	Description     string                   `json:"description" validate:"max=10000"`
	StartTime       *time.Time               `json:"start_time" validate:"required_if=Kind contest"`
	DurationMinutes int                      `json:"duration_minutes" validate:"required_if=Kind contest,gte=0,lte=10080"`
	DueDate         *time.Time               `json:"due_date" validate:"required_if=Kind assignment"`
	Problems        []ActivityProblemRequest `json:"problems" validate:"required,min=1,dive"`
}

// ActivityProblemResponse is one problem slot of an activity.
type ActivityProblemResponse struct {
	ProblemID  uint   `json:"problem_id"`
	Title      string `json:"title"`
	Difficulty string `json:"difficulty,omitempty"`
	Points     int    `json:"points"`
	Position   int    `json:"position"`
}

// ActivityResponse describes a contest or assignment.
type ActivityResponse struct {
	ID              uint                      `json:"id"`
	Kind            models.ActivityKind       `json:"kind"`
	Title           string                    `json:"title"`
	Description     string                    `json:"description"`
	OwnerID         uint                      `json:"owner_id"`
	StartTime       *time.Time                `json:"start_time,omitempty"`
	DurationMinutes int                       `json:"duration_minutes,omitempty"`
	EndTime         *time.Time                `json:"end_time,omitempty"`
	DueDate         *time.Time                `json:"due_date,omitempty"`
	Problems        []ActivityProblemResponse `json:"problems"`
}

// ActivitySummary identifies the activity a leaderboard belongs to.
type ActivitySummary struct {
	ID      uint                `json:"id"`
	Kind    models.ActivityKind `json:"kind"`
	Title   string              `json:"title"`
	EndTime *time.Time          `json:"end_time,omitempty"`
}

// NewActivityResponse converts an Activity model into a DTO.
func NewActivityResponse(model models.Activity) ActivityResponse {
	response := ActivityResponse{
		ID:              model.ID,
		Kind:            model.Kind,
		Title:           model.Title,
		Description:     model.Description,
		OwnerID:         model.OwnerID,
		StartTime:       model.StartTime,
		DurationMinutes: model.DurationMinutes,
		DueDate:         model.DueDate,
		Problems:        make([]ActivityProblemResponse, 0, len(model.Problems)),
	}

	if model.IsContest() {
		if end, ok := model.WindowEnd(); ok {
			response.EndTime = &end
		}
	}

	for _, entry := range model.Problems {
		response.Problems = append(response.Problems, ActivityProblemResponse{
			ProblemID:  entry.ProblemID,
			Title:      entry.Problem.Title,
			Difficulty: entry.Problem.Difficulty,
			Points:     entry.Points,
			Position:   entry.Position,
		})
	}

	return response
}

// NewActivitySummary extracts the identifying fields of an activity.
func NewActivitySummary(model models.Activity) ActivitySummary {
	summary := ActivitySummary{ID: model.ID, Kind: model.Kind, Title: model.Title}
	if end, ok := model.WindowEnd(); ok {
		summary.EndTime = &end
	}
	return summary
}
