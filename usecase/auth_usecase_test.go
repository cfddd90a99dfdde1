package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"job-board/domain"
	"job-board/infrastructure"
)

type capturingMailer struct {
	to    string
	token string
}

func (m *capturingMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.to, m.token = email, token
	return nil
}

type authFixture struct {
	*fixture
	uc     *AuthUsecase
	jwt    *infrastructure.JWTManager
	mailer *capturingMailer
}

func newAuthFixture(t *testing.T) *authFixture {
	f := newFixture(t)
	jwt := infrastructure.NewJWTManager("test-secret", time.Hour)
	mailer := &capturingMailer{}
	uc := NewAuthUsecase(infrastructure.NewUserRepository(f.db), jwt, mailer, f.listingUC, testLog())
	uc.cost = bcrypt.MinCost
	uc.now = fixedClock(&f.clock)
	return &authFixture{fixture: f, uc: uc, jwt: jwt, mailer: mailer}
}

func TestAuthUsecase_SignUpAndSignIn(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	u, err := f.uc.SignUp(ctx, "  Alice@Example.COM ", "correct-horse", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.NotEqual(t, "correct-horse", u.PasswordHash)

	_, err = f.uc.SignUp(ctx, "alice@example.com", "another-pass", "Alice 2")
	assert.ErrorIs(t, err, domain.ErrConflict)

	session, err := f.uc.SignIn(ctx, "ALICE@example.com", "correct-horse")
	require.NoError(t, err)
	claims, err := f.jwt.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	_, err = f.uc.SignIn(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.uc.SignIn(ctx, "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAuthUsecase_SignUpValidation(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.uc.SignUp(context.Background(), "not-an-email", "short", "")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")
}

func TestAuthUsecase_PasswordReset(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.uc.SignUp(ctx, "alice@example.com", "old-password", "Alice")
	require.NoError(t, err)

	require.NoError(t, f.uc.RequestPasswordReset(ctx, "nobody@example.com"))
	assert.Empty(t, f.mailer.token)

	require.NoError(t, f.uc.RequestPasswordReset(ctx, "alice@example.com"))
	require.NotEmpty(t, f.mailer.token)
	assert.Equal(t, "alice@example.com", f.mailer.to)

	assert.ErrorIs(t, f.uc.ResetPassword(ctx, "bogus", "new-password"), domain.ErrUnauthorized)
	require.NoError(t, f.uc.ResetPassword(ctx, f.mailer.token, "new-password"))
	assert.ErrorIs(t, f.uc.ResetPassword(ctx, f.mailer.token, "newer-password"), domain.ErrUnauthorized)

	_, err = f.uc.SignIn(ctx, "alice@example.com", "old-password")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = f.uc.SignIn(ctx, "alice@example.com", "new-password")
	assert.NoError(t, err)
}

func TestAuthUsecase_PasswordResetExpires(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.uc.SignUp(ctx, "alice@example.com", "old-password", "Alice")
	require.NoError(t, err)
	require.NoError(t, f.uc.RequestPasswordReset(ctx, "alice@example.com"))

	f.advance(2 * time.Hour)
	assert.ErrorIs(t, f.uc.ResetPassword(ctx, f.mailer.token, "new-password"), domain.ErrUnauthorized)
}

func TestAuthUsecase_DeleteAccount(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u, err := f.uc.SignUp(ctx, "alice@example.com", "correct-horse", "Alice")
	require.NoError(t, err)
	actor := domain.Actor{UserID: u.ID, Role: u.Role}
	l := f.createListing(t, actor, "Go Developer")

	page, err := f.listingUC.Search(ctx, domain.ListingQuery{})
	require.NoError(t, err)
	require.Equal(t, int64(1), page.Total)

	assert.ErrorIs(t, f.uc.DeleteAccount(ctx, actor, "wrong-password"), domain.ErrUnauthorized)
	require.NoError(t, f.uc.DeleteAccount(ctx, actor, "correct-horse"))

	_, err = f.uc.Profile(ctx, actor)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.uc.Actor(ctx, u.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	closed, err := f.listingUC.Get(ctx, admin, l.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, closed.Status)

	page, err = f.listingUC.Search(ctx, domain.ListingQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.Total, "cached search must not keep serving the closed listing")
	assert.Equal(t, []domain.ListingEventType{domain.ListingCreated, domain.ListingUpdated}, f.events.types())
}

func TestAuthUsecase_ActorUsesStoredRole(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	require.NoError(t, f.uc.EnsureAdmin(ctx, "root@example.com", "admin-password"))
	session, err := f.uc.SignIn(ctx, "root@example.com", "admin-password")
	require.NoError(t, err)

	actor, err := f.uc.Actor(ctx, session.User.ID)
	require.NoError(t, err)
	assert.True(t, actor.IsAdmin())
	assert.Equal(t, session.User.ID, actor.UserID)
}

func TestAuthUsecase_ProfileAndAdminSeed(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.uc.EnsureAdmin(ctx, "root@example.com", "admin-password"))
	require.NoError(t, f.uc.EnsureAdmin(ctx, "root@example.com", "admin-password"))

	session, err := f.uc.SignIn(ctx, "root@example.com", "admin-password")
	require.NoError(t, err)
	assert.True(t, session.User.IsAdmin())

	actor := domain.Actor{UserID: session.User.ID, Role: session.User.Role}
	u, err := f.uc.UpdateProfile(ctx, actor, "  Site Admin ")
	require.NoError(t, err)
	assert.Equal(t, "Site Admin", u.DisplayName)

	_, err = f.uc.Profile(ctx, guest)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
