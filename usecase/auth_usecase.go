package usecase

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"job-board/domain"
)

const (
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes.
	maxPasswordLength = 72
	passwordResetTTL  = time.Hour
)

type AuthUsecase struct {
	users    UserRepository
	tokens   TokenIssuer
	mailer   Mailer
	listings ListingNotifier
	log      *logrus.Entry
	now      func() time.Time
	cost     int
}

func NewAuthUsecase(users UserRepository, tokens TokenIssuer, mailer Mailer, listings ListingNotifier, log *logrus.Entry) *AuthUsecase {
	return &AuthUsecase{
		users:    users,
		tokens:   tokens,
		mailer:   mailer,
		listings: listings,
		log:      log,
		now:      utcNow,
		cost:     bcrypt.DefaultCost,
	}
}

// Session is returned on sign-in.
type Session struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

func (uc *AuthUsecase) SignUp(ctx context.Context, email, password, name string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	v := &domain.ValidationError{}
	if _, err := mail.ParseAddress(email); err != nil {
		v.Add("email", "is not a valid email address")
	}
	if err := checkPassword(password); err != nil {
		v.Add("password", err.Error())
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	return uc.createUser(ctx, email, password, strings.TrimSpace(name), domain.RoleUser)
}

func (uc *AuthUsecase) createUser(ctx context.Context, email, password, name string, role domain.Role) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), uc.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	now := uc.now()
	u := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SignIn does not reveal whether the email or the password was wrong.
func (uc *AuthUsecase) SignIn(ctx context.Context, email, password string) (*Session, error) {
	u, err := uc.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrUnauthorized
	}

	token, err := uc.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: u}, nil
}

// RequestPasswordReset succeeds whether or not the email is registered.
func (uc *AuthUsecase) RequestPasswordReset(ctx context.Context, email string) error {
	u, err := uc.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token, err := randomToken()
	if err != nil {
		return err
	}
	now := uc.now()
	pr := &domain.PasswordReset{
		TokenHash: hashToken(token),
		UserID:    u.ID,
		ExpiresAt: now.Add(passwordResetTTL),
		CreatedAt: now,
	}
	if err := uc.users.CreatePasswordReset(ctx, pr); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	if err := uc.mailer.SendPasswordReset(ctx, u.Email, token); err != nil {
		uc.log.WithError(err).WithField("user_id", u.ID).Error("failed to send password reset")
	}
	return nil
}

func (uc *AuthUsecase) ResetPassword(ctx context.Context, token, password string) error {
	if err := checkPassword(password); err != nil {
		return domain.Invalid("password", err.Error())
	}
	hash := hashToken(strings.TrimSpace(token))
	pr, err := uc.users.GetPasswordReset(ctx, hash)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrUnauthorized
	}
	if err != nil {
		return err
	}
	now := uc.now()
	if pr.UsedAt != nil || !pr.ExpiresAt.After(now) {
		return domain.ErrUnauthorized
	}

	u, err := uc.users.GetByID(ctx, pr.UserID)
	if err != nil {
		return err
	}
	consumed, err := uc.users.ConsumePasswordReset(ctx, hash, now)
	if err != nil {
		return err
	}
	if !consumed {
		return domain.ErrUnauthorized
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(password), uc.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	u.PasswordHash = string(newHash)
	u.UpdatedAt = now
	return uc.users.Update(ctx, u)
}

// DeleteAccount requires the current password.
func (uc *AuthUsecase) DeleteAccount(ctx context.Context, actor domain.Actor, password string) error {
	u, err := uc.Profile(ctx, actor)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return domain.ErrUnauthorized
	}
	closed, err := uc.users.DeleteCascade(ctx, u.ID, uc.now())
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if len(closed) > 0 {
		uc.listings.ListingsChanged(ctx, closed)
	}
	uc.log.WithFields(logrus.Fields{
		"user_id":         u.ID,
		"listings_closed": len(closed),
	}).Info("account deleted")
	return nil
}

// Actor resolves the account behind a verified token. A token outliving its
// account is rejected, and the stored role wins over the role in the token.
func (uc *AuthUsecase) Actor(ctx context.Context, userID string) (domain.Actor, error) {
	u, err := uc.users.GetByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Actor{}, domain.ErrUnauthorized
	}
	if err != nil {
		return domain.Actor{}, err
	}
	return domain.Actor{UserID: u.ID, Role: u.Role}, nil
}

func (uc *AuthUsecase) Profile(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	return uc.users.GetByID(ctx, actor.UserID)
}

func (uc *AuthUsecase) UpdateProfile(ctx context.Context, actor domain.Actor, name string) (*domain.User, error) {
	u, err := uc.Profile(ctx, actor)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if len(name) > 255 {
		return nil, domain.Invalid("display_name", "must be at most 255 characters")
	}
	u.DisplayName = name
	u.UpdatedAt = uc.now()
	if err := uc.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// EnsureAdmin creates the bootstrap admin account unless the email is taken.
func (uc *AuthUsecase) EnsureAdmin(ctx context.Context, email, password string) error {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil
	}
	_, err := uc.users.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if _, err := uc.createUser(ctx, email, password, "Admin", domain.RoleAdmin); err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	uc.log.WithField("email", email).Info("admin account created")
	return nil
}

func checkPassword(p string) error {
	switch {
	case len(p) < minPasswordLength:
		return fmt.Errorf("must be at least %d characters", minPasswordLength)
	case len(p) > maxPasswordLength:
		return fmt.Errorf("must be at most %d bytes", maxPasswordLength)
	}
	return nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
