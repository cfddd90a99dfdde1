package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"job-board/domain"
)

const listingCachePrefix = "listings:"

type ListingUsecase struct {
	repo   ListingRepository
	cache  Cache
	events EventPublisher
	ttl    time.Duration
	log    *logrus.Entry
	now    func() time.Time
}

// NewListingUsecase builds the listing service. ttl is how long a published
// listing stays public before it expires.
func NewListingUsecase(repo ListingRepository, cache Cache, events EventPublisher, ttl time.Duration, log *logrus.Entry) *ListingUsecase {
	return &ListingUsecase{
		repo:   repo,
		cache:  cache,
		events: events,
		ttl:    ttl,
		log:    log,
		now:    utcNow,
	}
}

func (uc *ListingUsecase) Create(ctx context.Context, actor domain.Actor, in domain.ListingInput) (*domain.JobListing, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	now := uc.now()

	l := &domain.JobListing{
		ID:        uuid.NewString(),
		OwnerID:   actor.UserID,
		Status:    domain.StatusActive,
		ExpiresAt: now.Add(uc.ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Draft {
		l.Status = domain.StatusDraft
	}
	in.Apply(l)
	if err := l.Validate(); err != nil {
		return nil, err
	}

	if err := uc.repo.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	uc.changed(ctx, domain.ListingCreated, l.ID)
	return l, nil
}

// Get returns a listing. Listings that are not public are visible to their
// owner and admins only; everyone else gets ErrNotFound.
func (uc *ListingUsecase) Get(ctx context.Context, actor domain.Actor, id string) (*domain.JobListing, error) {
	l, err := uc.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.IsPublic(uc.now()) && !actor.CanModify(l.OwnerID) {
		return nil, domain.ErrNotFound
	}
	if actor.UserID != l.OwnerID {
		if err := uc.repo.IncrementViews(ctx, id); err != nil {
			uc.log.WithError(err).WithField("listing_id", id).Warn("failed to count view")
		} else {
			l.Views++
		}
	}
	return l, nil
}

func (uc *ListingUsecase) Update(ctx context.Context, actor domain.Actor, id string, patch domain.ListingPatch) (*domain.JobListing, error) {
	l, err := uc.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	patch.Apply(l)
	if err := l.Validate(); err != nil {
		return nil, err
	}
	l.UpdatedAt = uc.now()

	if err := uc.repo.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	uc.changed(ctx, domain.ListingUpdated, l.ID)
	return l, nil
}

func (uc *ListingUsecase) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if _, err := uc.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.changed(ctx, domain.ListingDeleted, id)
	return nil
}

// Search runs the public listing query. Results are cached per normalized
// query until the next listing mutation.
func (uc *ListingUsecase) Search(ctx context.Context, q domain.ListingQuery) (domain.Page[domain.JobListing], error) {
	q = q.Normalize()
	key := listingCachePrefix + q.CacheKey()

	var page domain.Page[domain.JobListing]
	if uc.cache.Get(ctx, key, &page) {
		return page, nil
	}

	items, total, err := uc.repo.Search(ctx, q, uc.now())
	if err != nil {
		return page, fmt.Errorf("failed to search listings: %w", err)
	}
	page = domain.NewPage(items, total, q.Page, q.PageSize)
	uc.cache.Set(ctx, key, page)
	return page, nil
}

func (uc *ListingUsecase) ListByOwner(ctx context.Context, actor domain.Actor) ([]domain.JobListing, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	return uc.repo.ListByOwner(ctx, actor.UserID)
}

// SetStatus moves a listing between states. Owners may draft, publish or
// close their own listings; only admins may mark one expired. Re-activating
// a listing that has run out restarts its lifetime.
func (uc *ListingUsecase) SetStatus(ctx context.Context, actor domain.Actor, id string, status domain.ListingStatus) (*domain.JobListing, error) {
	if !status.Valid() {
		return nil, domain.Invalid("status", "is not a known status")
	}
	if status == domain.StatusExpired && !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	l, err := uc.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	if status == domain.StatusActive && !l.ExpiresAt.After(now) {
		l.ExpiresAt = now.Add(uc.ttl)
	}
	l.Status = status
	l.UpdatedAt = now

	if err := uc.repo.Update(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to update listing status: %w", err)
	}
	uc.changed(ctx, domain.ListingUpdated, l.ID)
	return l, nil
}

// ExpireStale marks active listings past their expiry as expired and
// announces each one.
func (uc *ListingUsecase) ExpireStale(ctx context.Context) (int64, error) {
	ids, err := uc.repo.ExpireBefore(ctx, uc.now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire listings: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	uc.ListingsChanged(ctx, ids)
	uc.log.WithField("count", len(ids)).Info("expired stale listings")
	return int64(len(ids)), nil
}

// ListingsChanged invalidates cached searches once and publishes an update
// event per listing. It serves bulk writes made outside this usecase.
func (uc *ListingUsecase) ListingsChanged(ctx context.Context, ids []string) {
	uc.cache.InvalidatePrefix(ctx, listingCachePrefix)
	for _, id := range ids {
		uc.publish(ctx, domain.ListingUpdated, id)
	}
}

// PublicListings returns every listing currently visible in search.
func (uc *ListingUsecase) PublicListings(ctx context.Context) ([]domain.JobListing, error) {
	return uc.repo.ListPublic(ctx, uc.now())
}

func (uc *ListingUsecase) owned(ctx context.Context, actor domain.Actor, id string) (*domain.JobListing, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	l, err := uc.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(l.OwnerID) {
		return nil, domain.ErrForbidden
	}
	return l, nil
}

// changed runs after a committed mutation. A publish failure is logged only;
// the write already happened and the nightly sitemap run catches up.
func (uc *ListingUsecase) changed(ctx context.Context, typ domain.ListingEventType, id string) {
	uc.cache.InvalidatePrefix(ctx, listingCachePrefix)
	uc.publish(ctx, typ, id)
}

func (uc *ListingUsecase) publish(ctx context.Context, typ domain.ListingEventType, id string) {
	ev := domain.ListingEvent{Type: typ, ListingID: id, OccurredAt: uc.now()}
	if err := uc.events.Publish(ctx, ev); err != nil {
		uc.log.WithError(err).WithFields(logrus.Fields{
			"event":      typ,
			"listing_id": id,
		}).Error("failed to publish listing event")
	}
}
