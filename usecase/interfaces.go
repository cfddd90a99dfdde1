package usecase

import (
	"context"
	"time"

	"job-board/domain"
)

type ListingRepository interface {
	Create(ctx context.Context, l *domain.JobListing) error
	Get(ctx context.Context, id string) (*domain.JobListing, error)
	Update(ctx context.Context, l *domain.JobListing) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q domain.ListingQuery, now time.Time) ([]domain.JobListing, int64, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.JobListing, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.JobListing, error)
	ListPublic(ctx context.Context, now time.Time) ([]domain.JobListing, error)
	IncrementViews(ctx context.Context, id string) error
	ExpireBefore(ctx context.Context, now time.Time) ([]string, error)
}

// ListingNotifier is told about listings changed by writes that bypass the
// listing usecase.
type ListingNotifier interface {
	ListingsChanged(ctx context.Context, ids []string)
}

type FavoriteRepository interface {
	Add(ctx context.Context, userID, listingID string) error
	Remove(ctx context.Context, userID, listingID string) error
	ListingIDs(ctx context.Context, userID string) ([]string, error)
}

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	DeleteCascade(ctx context.Context, userID string, now time.Time) ([]string, error)
	CreatePasswordReset(ctx context.Context, pr *domain.PasswordReset) error
	GetPasswordReset(ctx context.Context, tokenHash string) (*domain.PasswordReset, error)
	ConsumePasswordReset(ctx context.Context, tokenHash string, now time.Time) (bool, error)
}

type BlogRepository interface {
	CreatePost(ctx context.Context, p *domain.BlogPost) error
	UpdatePost(ctx context.Context, p *domain.BlogPost) error
	DeletePost(ctx context.Context, id string) error
	GetPostBySlug(ctx context.Context, slug string) (*domain.BlogPost, error)
	UniqueSlug(ctx context.Context, base, excludeID string) (string, error)
	ListPosts(ctx context.Context, tag string, publishedOnly bool, page, pageSize int) ([]domain.BlogPost, int64, error)
	ListPublished(ctx context.Context) ([]domain.BlogPost, error)
	CreateComment(ctx context.Context, c *domain.Comment) error
	GetComment(ctx context.Context, id string) (*domain.Comment, error)
	ListComments(ctx context.Context, postID string) ([]domain.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

type CVRepository interface {
	GetByUser(ctx context.Context, userID string) (*domain.CV, error)
	Save(ctx context.Context, cv *domain.CV) error
}

type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	Get(ctx context.Context, id string) (*domain.Payment, error)
	SetToken(ctx context.Context, id, token string) error
	Settle(ctx context.Context, id string, status domain.PaymentStatus, now time.Time) (bool, error)
	SettlePaid(ctx context.Context, id, listingID string, d time.Duration, now time.Time) (domain.PaymentStatus, bool, error)
}

type ChatRepository interface {
	Create(ctx context.Context, m *domain.ChatMessage) error
	Recent(ctx context.Context, sessionID string, limit int) ([]domain.ChatMessage, error)
}

// Cache stores JSON-serializable values under string keys.
type Cache interface {
	Get(ctx context.Context, key string, dst interface{}) bool
	Set(ctx context.Context, key string, value interface{})
	InvalidatePrefix(ctx context.Context, prefix string)
}

type EventPublisher interface {
	Publish(ctx context.Context, ev domain.ListingEvent) error
}

// Generator is a prompt-in, text-out model endpoint.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type PaymentGateway interface {
	RequestToken(ctx context.Context, req domain.CheckoutRequest) (string, error)
	CheckoutURL(token string) string
	VerifyCallback(cb domain.PaymentCallback) bool
}

type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

type TokenIssuer interface {
	Issue(u *domain.User) (string, error)
}

type TextExtractor interface {
	ExtractText(filename string, data []byte) (string, error)
}

type CVRenderer interface {
	Render(cv *domain.CV) ([]byte, error)
}

type SitemapWriter interface {
	Write(entries []domain.SitemapEntry, generatedAt time.Time) error
	URL() string
}

type SitemapPinger interface {
	Ping(ctx context.Context, sitemapURL string) int
}

// ChatBroadcaster pushes a persisted message to the live clients of its
// session.
type ChatBroadcaster interface {
	BroadcastChat(msg domain.ChatMessage)
}

func utcNow() time.Time {
	return time.Now().UTC()
}
