package models

import (
	"time"

	"gorm.io/datatypes"
)

// SubmissionStatus is the judge outcome of a submission.
type SubmissionStatus string

const (
	SubmissionStatusPending           SubmissionStatus = "Pending"
	SubmissionStatusAccepted          SubmissionStatus = "Accepted"
	SubmissionStatusWrongAnswer       SubmissionStatus = "Wrong Answer"
	SubmissionStatusTimeLimitExceeded SubmissionStatus = "Time Limit Exceeded"
	SubmissionStatusRuntimeError      SubmissionStatus = "Runtime Error"
)

// IsTerminal reports whether the status is a final judge outcome.
func (s SubmissionStatus) IsTerminal() bool {
	switch s {
	case SubmissionStatusAccepted, SubmissionStatusWrongAnswer, SubmissionStatusTimeLimitExceeded, SubmissionStatusRuntimeError:
		return true
	default:
		return false
	}
}

// Valid reports whether the status is one of the known values.
func (s SubmissionStatus) Valid() bool {
	return s == SubmissionStatusPending || s.IsTerminal()
}

// Submission is the current attempt of a student at one problem of an activity.
// The (activity, student, problem) triple is unique; resubmitting overwrites the row
// in place so ID doubles as the creation sequence.
type Submission struct {
	ID              uint              `gorm:"primaryKey" json:"id"`
	ActivityID      uint              `gorm:"not null;uniqueIndex:idx_submission_key,priority:1" json:"activity_id"`
	StudentID       uint              `gorm:"not null;uniqueIndex:idx_submission_key,priority:2;index" json:"student_id"`
	ProblemID       uint              `gorm:"not null;uniqueIndex:idx_submission_key,priority:3" json:"problem_id"`
	Code            string            `gorm:"type:text;not null" json:"code"`
	Language        string            `gorm:"size:32;not null" json:"language"`
	Status          SubmissionStatus  `gorm:"size:32;not null;index" json:"status"`
	Points          int               `gorm:"not null;default:0" json:"points"`
	ExecutionTimeMs int64             `gorm:"not null;default:0" json:"execution_time_ms"`
	MemoryKB        int64             `gorm:"not null;default:0" json:"memory_kb"`
	ErrorMessage    string            `gorm:"type:text" json:"error_message"`
	Verdict         datatypes.JSONMap `json:"verdict"`
	SubmittedAt     time.Time         `gorm:"not null;index" json:"submitted_at"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
	Student         Student           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Problem         Problem           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"problem"`
}

// IsAccepted reports whether the current attempt solved the problem.
func (s Submission) IsAccepted() bool {
	return s.Status == SubmissionStatusAccepted
}
