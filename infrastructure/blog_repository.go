package infrastructure

import (
	"context"
	"errors"
	"strconv"

	"gorm.io/gorm"

	"job-board/domain"
)

type BlogRepository struct {
	db *gorm.DB
}

func NewBlogRepository(db *gorm.DB) *BlogRepository {
	return &BlogRepository{db: db}
}

func (r *BlogRepository) CreatePost(ctx context.Context, p *domain.BlogPost) error {
	err := r.db.WithContext(ctx).Create(p).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrConflict
	}
	return err
}

func (r *BlogRepository) UpdatePost(ctx context.Context, p *domain.BlogPost) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// DeletePost removes the post and its comments.
func (r *BlogRepository) DeletePost(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.BlogPost{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *BlogRepository) GetPostBySlug(ctx context.Context, slug string) (*domain.BlogPost, error) {
	var p domain.BlogPost
	if err := r.db.WithContext(ctx).First(&p, "slug = ?", slug).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// UniqueSlug returns base, or base with the first free numeric suffix.
func (r *BlogRepository) UniqueSlug(ctx context.Context, base, excludeID string) (string, error) {
	candidate := base
	for i := 2; ; i++ {
		var count int64
		q := r.db.WithContext(ctx).Model(&domain.BlogPost{}).Where("slug = ?", candidate)
		if excludeID != "" {
			q = q.Where("id <> ?", excludeID)
		}
		if err := q.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(i)
	}
}

// ListPosts pages posts newest first. Tags are stored as a JSON array, so a
// tag filter matches the quoted element.
func (r *BlogRepository) ListPosts(ctx context.Context, tag string, publishedOnly bool, page, pageSize int) ([]domain.BlogPost, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if publishedOnly {
			db = db.Where("published = ?", true)
		}
		if tag != "" {
			db = db.Where("tags LIKE ? ESCAPE '!'", containsPattern(`"`+tag+`"`))
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.BlogPost{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var posts []domain.BlogPost
	err := r.db.WithContext(ctx).
		Scopes(scope).
		Order("published_at DESC").
		Order("created_at DESC").
		Offset(domain.PageOffset(page, pageSize)).
		Limit(pageSize).
		Find(&posts).Error
	return posts, total, err
}

func (r *BlogRepository) ListPublished(ctx context.Context) ([]domain.BlogPost, error) {
	var posts []domain.BlogPost
	err := r.db.WithContext(ctx).
		Where("published = ?", true).
		Order("published_at DESC").
		Find(&posts).Error
	return posts, err
}

func (r *BlogRepository) CreateComment(ctx context.Context, c *domain.Comment) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *BlogRepository) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	var c domain.Comment
	if err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *BlogRepository) ListComments(ctx context.Context, postID string) ([]domain.Comment, error) {
	var comments []domain.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error
	return comments, err
}

func (r *BlogRepository) DeleteComment(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.Comment{}, "id = ?", id).Error
}
