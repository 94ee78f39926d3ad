package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-contest-api/internal/models"
)

// StatusCount is the number of current submissions in one status.
type StatusCount struct {
	Status models.SubmissionStatus
	Count  int64
}

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	FindByActivity(ctx context.Context, activityID uint) ([]models.Submission, error)
	FindByActivityAndStudent(ctx context.Context, activityID, studentID uint) ([]models.Submission, error)
	FindByKey(ctx context.Context, activityID, studentID, problemID uint) (models.Submission, error)
	FindByStudent(ctx context.Context, studentID uint) ([]models.Submission, error)
	Upsert(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
	CountByStatus(ctx context.Context) ([]StatusCount, error)
	Recent(ctx context.Context, limit int) ([]models.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) FindByActivity(ctx context.Context, activityID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Order("id ASC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) FindByActivityAndStudent(ctx context.Context, activityID, studentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Preload("Problem").
		Where("activity_id = ?", activityID).
		Where("student_id = ?", studentID).
		Order("submitted_at DESC").
		Order("id DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) FindByKey(ctx context.Context, activityID, studentID, problemID uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Where("activity_id = ? AND student_id = ? AND problem_id = ?", activityID, studentID, problemID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

// Upsert writes the record addressed by its (activity, student, problem) key.
// An existing row keeps its ID and CreatedAt; submission and judge fields are replaced.
func (r *submissionRepository) Upsert(ctx context.Context, submission *models.Submission) error {
	row := *submission
	row.ID = 0
	row.CreatedAt = time.Time{}

	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "activity_id"}, {Name: "student_id"}, {Name: "problem_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"code", "language", "status", "points", "execution_time_ms",
				"memory_kb", "error_message", "verdict", "submitted_at", "updated_at",
			}),
		}).
		Create(&row).Error
	if err != nil {
		return err
	}

	stored, err := r.FindByKey(ctx, submission.ActivityID, submission.StudentID, submission.ProblemID)
	if err != nil {
		return err
	}
	*submission = stored

	return nil
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(submission).Error
}

func (r *submissionRepository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	var counts []StatusCount
	if err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("status ASC").
		Scan(&counts).Error; err != nil {
		return nil, err
	}

	return counts, nil
}

func (r *submissionRepository) FindByStudent(ctx context.Context, studentID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Preload("Problem").
		Where("student_id = ?", studentID).
		Order("submitted_at DESC").
		Order("id DESC").
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) Recent(ctx context.Context, limit int) ([]models.Submission, error) {
	if limit <= 0 {
		limit = 5
	}

	var submissions []models.Submission
	if err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Problem").
		Order("submitted_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}
