package infrastructure

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"job-board/domain"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrConflict
	}
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.db.WithContext(ctx).First(&u, "email = ?", domain.NormalizeEmail(email)).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	return r.db.WithContext(ctx).Save(u).Error
}

// DeleteCascade removes the user and everything personal to them. Their
// listings are closed rather than deleted so payment history stays intact;
// the ids of the listings it closed are returned.
func (r *UserRepository) DeleteCascade(ctx context.Context, userID string, now time.Time) ([]string, error) {
	var closed []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		steps := []func() error{
			func() error { return tx.Where("user_id = ?", userID).Delete(&domain.Favorite{}).Error },
			func() error { return tx.Where("user_id = ?", userID).Delete(&domain.CV{}).Error },
			func() error { return tx.Where("user_id = ?", userID).Delete(&domain.ChatMessage{}).Error },
			func() error { return tx.Where("author_id = ?", userID).Delete(&domain.Comment{}).Error },
			func() error { return tx.Where("user_id = ?", userID).Delete(&domain.PasswordReset{}).Error },
			func() error {
				return tx.Model(&domain.JobListing{}).
					Where("owner_id = ? AND status <> ?", userID, domain.StatusClosed).
					Order("id").
					Pluck("id", &closed).Error
			},
			func() error {
				if len(closed) == 0 {
					return nil
				}
				return tx.Model(&domain.JobListing{}).
					Where("id IN ?", closed).
					Updates(map[string]interface{}{"status": domain.StatusClosed, "updated_at": now}).Error
			},
		}
		for _, step := range steps {
			if err := step(); err != nil {
				return err
			}
		}
		res := tx.Delete(&domain.User{}, "id = ?", userID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return closed, nil
}

func (r *UserRepository) CreatePasswordReset(ctx context.Context, pr *domain.PasswordReset) error {
	return r.db.WithContext(ctx).Create(pr).Error
}

func (r *UserRepository) GetPasswordReset(ctx context.Context, tokenHash string) (*domain.PasswordReset, error) {
	var pr domain.PasswordReset
	if err := r.db.WithContext(ctx).First(&pr, "token_hash = ?", tokenHash).Error; err != nil {
		return nil, notFound(err)
	}
	return &pr, nil
}

// ConsumePasswordReset marks the token used. It reports false when the token
// was already consumed.
func (r *UserRepository) ConsumePasswordReset(ctx context.Context, tokenHash string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&domain.PasswordReset{}).
		Where("token_hash = ? AND used_at IS NULL", tokenHash).
		Update("used_at", now)
	return res.RowsAffected == 1, res.Error
}
