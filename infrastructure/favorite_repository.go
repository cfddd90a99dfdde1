package infrastructure

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"job-board/domain"
)

type FavoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Add is idempotent.
func (r *FavoriteRepository) Add(ctx context.Context, userID, listingID string) error {
	fav := domain.Favorite{UserID: userID, ListingID: listingID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&fav).Error
}

func (r *FavoriteRepository) Remove(ctx context.Context, userID, listingID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Delete(&domain.Favorite{}).Error
}

func (r *FavoriteRepository) ListingIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&domain.Favorite{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("listing_id", &ids).Error
	return ids, err
}
