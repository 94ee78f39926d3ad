package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/gema-contest-api/internal/models"
)

// ActivityRepository loads and persists contests and assignments.
type ActivityRepository interface {
	GetByID(ctx context.Context, id uint) (models.Activity, error)
	Create(ctx context.Context, activity *models.Activity) error
	Save(ctx context.Context, activity *models.Activity) error
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository constructs an activity repository.
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) GetByID(ctx context.Context, id uint) (models.Activity, error) {
	var activity models.Activity
	if err := r.db.WithContext(ctx).
		Preload("Problems", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC").Order("id ASC")
		}).
		Preload("Problems.Problem").
		First(&activity, id).Error; err != nil {
		return models.Activity{}, err
	}

	return activity, nil
}

func (r *activityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		problems := activity.Problems
		if err := tx.Omit(clause.Associations).Create(activity).Error; err != nil {
			return err
		}
		return replaceProblems(tx, activity, problems)
	})
}

// Save updates the activity row and replaces its problem list.
func (r *activityRepository) Save(ctx context.Context, activity *models.Activity) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		problems := activity.Problems
		if err := tx.Omit(clause.Associations).Save(activity).Error; err != nil {
			return err
		}
		if err := tx.Where("activity_id = ?", activity.ID).Delete(&models.ActivityProblem{}).Error; err != nil {
			return err
		}
		return replaceProblems(tx, activity, problems)
	})
}

func replaceProblems(tx *gorm.DB, activity *models.Activity, problems []models.ActivityProblem) error {
	stored := make([]models.ActivityProblem, 0, len(problems))
	for idx, entry := range problems {
		stored = append(stored, models.ActivityProblem{
			ActivityID: activity.ID,
			ProblemID:  entry.ProblemID,
			Points:     entry.Points,
			Position:   idx + 1,
		})
	}
	if len(stored) > 0 {
		if err := tx.Omit(clause.Associations).Create(&stored).Error; err != nil {
			return err
		}
	}
	activity.Problems = stored
	return nil
}
