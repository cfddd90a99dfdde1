package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"job-board/domain"
)

type PromotionUsecase struct {
	payments PaymentRepository
	users    UserRepository
	listings *ListingUsecase
	gateway  PaymentGateway
	plans    map[string]domain.PromotionPlan
	log      *logrus.Entry
	now      func() time.Time
}

// PromotionPlans builds the two purchasable windows from their prices in
// minor units.
func PromotionPlans(weekPrice, monthPrice int64, currency string) []domain.PromotionPlan {
	return []domain.PromotionPlan{
		{Name: "week", Days: 7, Duration: 7 * 24 * time.Hour, Amount: weekPrice, Currency: currency},
		{Name: "month", Days: 30, Duration: 30 * 24 * time.Hour, Amount: monthPrice, Currency: currency},
	}
}

func NewPromotionUsecase(payments PaymentRepository, users UserRepository, listings *ListingUsecase, gateway PaymentGateway, plans []domain.PromotionPlan, log *logrus.Entry) *PromotionUsecase {
	byName := make(map[string]domain.PromotionPlan, len(plans))
	for _, p := range plans {
		byName[p.Name] = p
	}
	return &PromotionUsecase{
		payments: payments,
		users:    users,
		listings: listings,
		gateway:  gateway,
		plans:    byName,
		log:      log,
		now:      utcNow,
	}
}

// Plans lists the plans cheapest first.
func (uc *PromotionUsecase) Plans() []domain.PromotionPlan {
	out := make([]domain.PromotionPlan, 0, len(uc.plans))
	for _, name := range []string{"week", "month"} {
		if p, ok := uc.plans[name]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Checkout is where the buyer is sent to pay.
type Checkout struct {
	PaymentID string `json:"payment_id"`
	URL       string `json:"checkout_url"`
}

// StartCheckout records a pending payment and asks the gateway for a
// checkout token. Only the listing owner may promote it.
func (uc *PromotionUsecase) StartCheckout(ctx context.Context, actor domain.Actor, listingID, planName, clientIP string) (*Checkout, error) {
	plan, ok := uc.plans[planName]
	if !ok {
		return nil, domain.Invalid("plan", "is not a known plan")
	}
	l, err := uc.listings.owned(ctx, actor, listingID)
	if err != nil {
		return nil, err
	}
	if l.Status != domain.StatusActive {
		return nil, domain.Invalid("listing", "only active listings can be promoted")
	}
	u, err := uc.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	p := &domain.Payment{
		// The gateway only accepts alphanumeric order ids.
		ID:        strings.ReplaceAll(uuid.NewString(), "-", ""),
		ListingID: l.ID,
		UserID:    u.ID,
		Plan:      plan.Name,
		Amount:    plan.Amount,
		Currency:  plan.Currency,
		Status:    domain.PaymentPending,
		CreatedAt: uc.now(),
	}
	if err := uc.payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	token, err := uc.gateway.RequestToken(ctx, domain.CheckoutRequest{
		OrderID:  p.ID,
		Email:    u.Email,
		ClientIP: clientIP,
		Amount:   p.Amount,
		Currency: p.Currency,
		Item:     fmt.Sprintf("Listing promotion (%d days): %s", plan.Days, l.Title),
	})
	if err != nil {
		if _, serr := uc.payments.Settle(ctx, p.ID, domain.PaymentFailed, uc.now()); serr != nil {
			uc.log.WithError(serr).WithField("payment_id", p.ID).Error("failed to mark payment failed")
		}
		return nil, fmt.Errorf("payment gateway: %w", err)
	}
	if err := uc.payments.SetToken(ctx, p.ID, token); err != nil {
		return nil, err
	}
	return &Checkout{PaymentID: p.ID, URL: uc.gateway.CheckoutURL(token)}, nil
}

// HandleCallback settles a payment from the gateway's notification. A paid
// payment and its promotion commit together; if the listing is gone the
// payment is kept as refund_due. A replayed callback for an already settled
// payment reports the stored status and changes nothing.
func (uc *PromotionUsecase) HandleCallback(ctx context.Context, cb domain.PaymentCallback) (domain.PaymentStatus, error) {
	if !uc.gateway.VerifyCallback(cb) {
		return "", domain.ErrUnauthorized
	}
	p, err := uc.payments.Get(ctx, cb.OrderID)
	if err != nil {
		return "", err
	}
	if p.Status != domain.PaymentPending {
		return p.Status, nil
	}

	entry := uc.log.WithFields(logrus.Fields{
		"payment_id": p.ID,
		"listing_id": p.ListingID,
	})

	status := domain.PaymentPaid
	if !cb.Succeeded() {
		status = domain.PaymentFailed
		entry.WithField("reason", cb.FailReason).Info("payment failed")
	} else if paid, err := strconv.ParseInt(cb.TotalAmount, 10, 64); err != nil || paid < p.Amount {
		status = domain.PaymentFailed
		entry.WithField("total_amount", cb.TotalAmount).Warn("payment amount mismatch")
	}

	if status == domain.PaymentFailed {
		return uc.settleFailed(ctx, p.ID)
	}

	plan, ok := uc.plans[p.Plan]
	if !ok {
		return "", fmt.Errorf("payment %s references unknown plan %q", p.ID, p.Plan)
	}
	status, settled, err := uc.payments.SettlePaid(ctx, p.ID, p.ListingID, plan.Duration, uc.now())
	if err != nil {
		return "", fmt.Errorf("failed to settle payment: %w", err)
	}
	if !settled {
		return status, nil
	}
	switch status {
	case domain.PaymentRefundDue:
		entry.WithField("plan", plan.Name).Warn("listing gone before promotion, payment due for refund")
	case domain.PaymentPaid:
		uc.listings.changed(ctx, domain.ListingUpdated, p.ListingID)
		entry.WithField("plan", plan.Name).Info("listing promoted")
	}
	return status, nil
}

func (uc *PromotionUsecase) settleFailed(ctx context.Context, id string) (domain.PaymentStatus, error) {
	settled, err := uc.payments.Settle(ctx, id, domain.PaymentFailed, uc.now())
	if err != nil {
		return "", err
	}
	if settled {
		return domain.PaymentFailed, nil
	}
	current, err := uc.payments.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return current.Status, nil
}
