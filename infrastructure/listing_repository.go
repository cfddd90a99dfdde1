package infrastructure

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"job-board/domain"
)

type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func (r *ListingRepository) Create(ctx context.Context, l *domain.JobListing) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *ListingRepository) Get(ctx context.Context, id string) (*domain.JobListing, error) {
	var l domain.JobListing
	if err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &l, nil
}

// editableColumns are what owner edits and status changes write. views and
// promoted_until have their own conditional updates and are never written
// from a stale copy.
var editableColumns = []string{
	"title", "company", "location", "description", "category", "job_type",
	"experience_level", "salary_min", "salary_max", "currency", "contact_email",
	"contact_phone", "apply_url", "status", "expires_at", "updated_at",
}

func (r *ListingRepository) Update(ctx context.Context, l *domain.JobListing) error {
	return r.db.WithContext(ctx).Model(l).Select(editableColumns).Updates(l).Error
}

// ExtendPromotion pushes promoted_until out by d and returns the new end.
func (r *ListingRepository) ExtendPromotion(ctx context.Context, id string, d time.Duration, now time.Time) (time.Time, error) {
	return extendPromotion(r.db.WithContext(ctx), id, d, now)
}

const promotionWriteAttempts = 5

var errPromotionContended = errors.New("promotion update kept conflicting")

// extendPromotion is a compare-and-set on the promoted_until value it read,
// so two extensions racing on one listing both land.
func extendPromotion(db *gorm.DB, id string, d time.Duration, now time.Time) (time.Time, error) {
	for attempt := 0; attempt < promotionWriteAttempts; attempt++ {
		var l domain.JobListing
		if err := db.Select("id", "promoted_until").First(&l, "id = ?", id).Error; err != nil {
			return time.Time{}, notFound(err)
		}
		current := l.PromotedUntil
		l.Promote(now, d)

		q := db.Model(&domain.JobListing{}).Where("id = ?", id)
		if current == nil {
			q = q.Where("promoted_until IS NULL")
		} else {
			q = q.Where("promoted_until = ?", *current)
		}
		res := q.Updates(map[string]interface{}{
			"promoted_until": *l.PromotedUntil,
			"updated_at":     now,
		})
		if res.Error != nil {
			return time.Time{}, res.Error
		}
		if res.RowsAffected == 1 {
			return *l.PromotedUntil, nil
		}
	}
	return time.Time{}, errPromotionContended
}

// Delete removes the listing together with every favorite pointing at it.
func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("listing_id = ?", id).Delete(&domain.Favorite{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.JobListing{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

// Search runs the public listing query: active, unexpired listings matching
// the filter, promoted first, then by creation time, then by id.
func (r *ListingRepository) Search(ctx context.Context, q domain.ListingQuery, now time.Time) ([]domain.JobListing, int64, error) {
	q = q.Normalize()
	scope := publicListings(q.Filter, now)

	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.JobListing{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	direction := "DESC"
	if q.Sort == domain.SortOldest {
		direction = "ASC"
	}

	var items []domain.JobListing
	err := r.db.WithContext(ctx).
		Scopes(scope).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN promoted_until IS NOT NULL AND promoted_until > ? THEN 0 ELSE 1 END",
			Vars:               []interface{}{now},
			WithoutParentheses: true,
		}}).
		Order("created_at " + direction).
		Order("id ASC").
		Offset(q.Offset()).
		Limit(q.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func publicListings(f domain.ListingFilter, now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("status = ?", domain.StatusActive).Where("expires_at > ?", now)
		if f.Search != "" {
			like := containsPattern(strings.ToLower(f.Search))
			db = db.Where("(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(company) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!')", like, like, like)
		}
		if f.Category != "" {
			db = db.Where("LOWER(category) = ?", f.Category)
		}
		if f.Location != "" {
			db = db.Where("LOWER(location) LIKE ? ESCAPE '!'", containsPattern(strings.ToLower(f.Location)))
		}
		if f.JobType != "" {
			db = db.Where("job_type = ?", f.JobType)
		}
		if f.ExperienceLevel != "" {
			db = db.Where("experience_level = ?", f.ExperienceLevel)
		}
		return db
	}
}

func (r *ListingRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.JobListing, error) {
	var items []domain.JobListing
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

func (r *ListingRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.JobListing, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []domain.JobListing
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error
	return items, err
}

// ListPublic returns every publicly visible listing, newest first.
func (r *ListingRepository) ListPublic(ctx context.Context, now time.Time) ([]domain.JobListing, error) {
	var items []domain.JobListing
	err := r.db.WithContext(ctx).
		Scopes(publicListings(domain.ListingFilter{}, now)).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

func (r *ListingRepository) IncrementViews(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&domain.JobListing{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error
}

// ExpireBefore flips active listings whose expiry has passed to expired and
// returns their ids.
func (r *ListingRepository) ExpireBefore(ctx context.Context, now time.Time) ([]string, error) {
	var expired []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		err := tx.Model(&domain.JobListing{}).
			Where("status = ? AND expires_at <= ?", domain.StatusActive, now).
			Order("id").
			Pluck("id", &ids).Error
		if err != nil || len(ids) == 0 {
			return err
		}
		err = tx.Model(&domain.JobListing{}).
			Where("id IN ? AND status = ?", ids, domain.StatusActive).
			Updates(map[string]interface{}{
				"status":     domain.StatusExpired,
				"updated_at": now,
			}).Error
		if err != nil {
			return err
		}
		expired = ids
		return nil
	})
	return expired, err
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
