package infrastructure

import (
	"context"

	"gorm.io/gorm"

	"job-board/domain"
)

type CVRepository struct {
	db *gorm.DB
}

func NewCVRepository(db *gorm.DB) *CVRepository {
	return &CVRepository{db: db}
}

func (r *CVRepository) GetByUser(ctx context.Context, userID string) (*domain.CV, error) {
	var cv domain.CV
	if err := r.db.WithContext(ctx).First(&cv, "user_id = ?", userID).Error; err != nil {
		return nil, notFound(err)
	}
	return &cv, nil
}

// Save inserts or replaces the user's CV; cv.ID must already be assigned.
func (r *CVRepository) Save(ctx context.Context, cv *domain.CV) error {
	return r.db.WithContext(ctx).Save(cv).Error
}
