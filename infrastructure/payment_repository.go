package infrastructure

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"job-board/domain"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) Get(ctx context.Context, id string) (*domain.Payment, error) {
	var p domain.Payment
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *PaymentRepository) SetToken(ctx context.Context, id, token string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("id = ?", id).
		Update("gateway_token", token).Error
}

// Settle moves a pending payment to its final status. It reports false when
// the payment had already been settled, which makes callbacks replay-safe.
func (r *PaymentRepository) Settle(ctx context.Context, id string, status domain.PaymentStatus, now time.Time) (bool, error) {
	updates := map[string]interface{}{"status": status}
	if status == domain.PaymentPaid {
		updates["paid_at"] = now
	}
	res := r.db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("id = ? AND status = ?", id, domain.PaymentPending).
		Updates(updates)
	return res.RowsAffected == 1, res.Error
}

// SettlePaid marks a pending payment paid and extends the listing's promotion
// by d in one transaction. When the listing no longer exists the payment is
// stored as refund_due instead. settled is false when the payment had already
// left pending; status is then the stored one.
func (r *PaymentRepository) SettlePaid(ctx context.Context, id, listingID string, d time.Duration, now time.Time) (domain.PaymentStatus, bool, error) {
	status := domain.PaymentPaid
	settled := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Payment{}).
			Where("id = ? AND status = ?", id, domain.PaymentPending).
			Updates(map[string]interface{}{"status": domain.PaymentPaid, "paid_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			var p domain.Payment
			if err := tx.Select("status").First(&p, "id = ?", id).Error; err != nil {
				return notFound(err)
			}
			status = p.Status
			return nil
		}
		settled = true

		_, err := extendPromotion(tx, listingID, d, now)
		if errors.Is(err, domain.ErrNotFound) {
			status = domain.PaymentRefundDue
			return tx.Model(&domain.Payment{}).
				Where("id = ?", id).
				Update("status", domain.PaymentRefundDue).Error
		}
		return err
	})
	if err != nil {
		return "", false, err
	}
	return status, settled, nil
}
