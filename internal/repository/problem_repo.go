package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/gema-contest-api/internal/models"
)

// ProblemRepository resolves problem references.
type ProblemRepository interface {
	FindByIDs(ctx context.Context, ids []uint) ([]models.Problem, error)
}

type problemRepository struct {
	db *gorm.DB
}

// NewProblemRepository constructs a problem repository.
func NewProblemRepository(db *gorm.DB) ProblemRepository {
	return &problemRepository{db: db}
}

func (r *problemRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Problem, error) {
	if len(ids) == 0 {
		return []models.Problem{}, nil
	}

	var problems []models.Problem
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&problems).Error; err != nil {
		return nil, err
	}

	return problems, nil
}
