package usecase

import (
	"context"
	"time"

	"job-board/domain"
)

type FavoriteUsecase struct {
	favorites FavoriteRepository
	listings  ListingRepository
	now       func() time.Time
}

func NewFavoriteUsecase(favorites FavoriteRepository, listings ListingRepository) *FavoriteUsecase {
	return &FavoriteUsecase{favorites: favorites, listings: listings, now: utcNow}
}

// Add is idempotent. The listing must exist.
func (uc *FavoriteUsecase) Add(ctx context.Context, actor domain.Actor, listingID string) error {
	if actor.UserID == "" {
		return domain.ErrUnauthorized
	}
	if _, err := uc.listings.Get(ctx, listingID); err != nil {
		return err
	}
	return uc.favorites.Add(ctx, actor.UserID, listingID)
}

// Remove is idempotent.
func (uc *FavoriteUsecase) Remove(ctx context.Context, actor domain.Actor, listingID string) error {
	if actor.UserID == "" {
		return domain.ErrUnauthorized
	}
	return uc.favorites.Remove(ctx, actor.UserID, listingID)
}

// List returns the user's favorites run through the listing query in memory.
// Favorites stay listed after a listing closes so the user can still see it.
func (uc *FavoriteUsecase) List(ctx context.Context, actor domain.Actor, q domain.ListingQuery) (domain.Page[domain.JobListing], error) {
	if actor.UserID == "" {
		return domain.Page[domain.JobListing]{}, domain.ErrUnauthorized
	}
	ids, err := uc.favorites.ListingIDs(ctx, actor.UserID)
	if err != nil {
		return domain.Page[domain.JobListing]{}, err
	}
	listings, err := uc.listings.ListByIDs(ctx, ids)
	if err != nil {
		return domain.Page[domain.JobListing]{}, err
	}
	return domain.QueryListings(listings, q, uc.now()), nil
}
