package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-contest-api/internal/models"
)

// RosterProvider lists the students who belong on an activity's leaderboard.
type RosterProvider interface {
	ListEligibleStudents(ctx context.Context, activityID uint) ([]models.Student, error)
}

// StudentRepository provides access to student records.
type StudentRepository interface {
	RosterProvider
	GetByID(ctx context.Context, id uint) (models.Student, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

// ListEligibleStudents returns every registered student ordered by name then ID.
// Enrolment is not modelled, so the roster is the same for every activity.
func (r *studentRepository) ListEligibleStudents(ctx context.Context, _ uint) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).
		Order("name ASC").
		Order("id ASC").
		Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}
