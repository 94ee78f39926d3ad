package dto

import (
	"time"

	"github.com/noah-isme/gema-contest-api/internal/models"
)

// SubmitRequest is a student's attempt at one problem of an activity.
// ActivityID and StudentID come from the route and the bearer token.
type SubmitRequest struct {
	ActivityID uint   `json:"-" validate:"required,gt=0"`
	StudentID  uint   `json:"-" validate:"required,gt=0"`
	ProblemID  uint   `json:"problem_id" validate:"required,gt=0"`
	Code       string `json:"code" validate:"required,min=1"`
	Language   string `json:"language" validate:"required,max=32"`
}

// SubmitAck acknowledges an accepted attempt. Judging happens asynchronously.
type SubmitAck struct {
	SubmissionID uint                    `json:"submission_id"`
	ActivityID   uint                    `json:"activity_id"`
	ProblemID    uint                    `json:"problem_id"`
	Status       models.SubmissionStatus `json:"status"`
	Outcome      string                  `json:"outcome"`
	SubmittedAt  time.Time               `json:"submitted_at"`
}

// VerdictRequest carries an external judge's outcome for one attempt.
type VerdictRequest struct {
	ActivityID      uint                   `json:"activity_id" validate:"required,gt=0"`
	StudentID       uint                   `json:"student_id" validate:"required,gt=0"`
	ProblemID       uint                   `json:"problem_id" validate:"required,gt=0"`
	SubmittedAt     time.Time              `json:"submitted_at" validate:"required"`
	Status          string                 `json:"status" validate:"required,oneof='Accepted' 'Wrong Answer' 'Time Limit Exceeded' 'Runtime Error'"`
	Points          int                    `json:"points" validate:"gte=0"`
	ExecutionTimeMs int64                  `json:"execution_time_ms" validate:"gte=0"`
	MemoryKB        int64                  `json:"memory_kb" validate:"gte=0"`
	ErrorMessage    string                 `json:"error_message" validate:"max=4096"`
	Details         map[string]interface{} `json:"details"`
}

// SubmissionResponse is returned to API clients when viewing submissions.
type SubmissionResponse struct {
	ID              uint                    `json:"id"`
	ActivityID      uint                    `json:"activity_id"`
	StudentID       uint                    `json:"student_id"`
	ProblemID       uint                    `json:"problem_id"`
	Language        string                  `json:"language"`
	Code            string                  `json:"code,omitempty"`
	Status          models.SubmissionStatus `json:"status"`
	Points          int                     `json:"points"`
	ExecutionTimeMs int64                   `json:"execution_time_ms"`
	MemoryKB        int64                   `json:"memory_kb"`
	ErrorMessage    string                  `json:"error_message,omitempty"`
	SubmittedAt     time.Time               `json:"submitted_at"`
	Problem         *ProblemLite            `json:"problem,omitempty"`
	Student         *StudentLite            `json:"student,omitempty"`
}

// ProblemLite summarizes a problem in nested responses.
type ProblemLite struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

// StudentLite summarizes a student without exposing full profile data.
type StudentLite struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	RegNumber string `json:"reg_number"`
}

// StatusCountResponse is one bucket of the submission statistics.
type StatusCountResponse struct {
	Status models.SubmissionStatus `json:"status"`
	Count  int64                   `json:"count"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission, includeCode bool) SubmissionResponse {
	response := SubmissionResponse{
		ID:              model.ID,
		ActivityID:      model.ActivityID,
		StudentID:       model.StudentID,
		ProblemID:       model.ProblemID,
		Language:        model.Language,
		Status:          model.Status,
		Points:          model.Points,
		ExecutionTimeMs: model.ExecutionTimeMs,
		MemoryKB:        model.MemoryKB,
		ErrorMessage:    model.ErrorMessage,
		SubmittedAt:     model.SubmittedAt,
	}

	if includeCode {
		response.Code = model.Code
	}

	if model.Problem.ID != 0 {
		response.Problem = &ProblemLite{ID: model.Problem.ID, Title: model.Problem.Title}
	}

	if model.Student.ID != 0 {
		response.Student = &StudentLite{ID: model.Student.ID, Name: model.Student.Name, RegNumber: model.Student.RegNumber}
	}

	return response
}

// NewSubmissionResponseSlice converts submission models into DTOs.
func NewSubmissionResponseSlice(records []models.Submission, includeCode bool) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(records))
	for _, submission := range records {
		responses = append(responses, NewSubmissionResponse(submission, includeCode))
	}

	return responses
}
