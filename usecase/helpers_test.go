package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"job-board/domain"
	"job-board/infrastructure"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := infrastructure.OpenDatabase("sqlite", "")
	require.NoError(t, err)
	require.NoError(t, infrastructure.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func fixedClock(at *time.Time) func() time.Time {
	return func() time.Time { return *at }
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ListingEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.ListingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []domain.ListingEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.ListingEventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type fakeGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.reply, g.err
}

var errModelDown = errors.New("model unavailable")

type fixture struct {
	db        *gorm.DB
	clock     time.Time
	events    *recordingPublisher
	listingUC *ListingUsecase
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{db: newTestDB(t), clock: t0, events: &recordingPublisher{}}
	cache := infrastructure.NewCache(nil, time.Minute, 100, testLog())
	f.listingUC = NewListingUsecase(infrastructure.NewListingRepository(f.db), cache, f.events, 30*24*time.Hour, testLog())
	f.listingUC.now = fixedClock(&f.clock)
	return f
}

func (f *fixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func listingInput(title string) domain.ListingInput {
	return domain.ListingInput{
		Title:           title,
		Company:         "Acme",
		Location:        "Berlin",
		Description:     "Build things with Go.",
		Category:        "software",
		JobType:         "full-time",
		ExperienceLevel: "mid",
		ContactEmail:    "jobs@acme.test",
	}
}

func (f *fixture) createListing(t *testing.T, owner domain.Actor, title string) *domain.JobListing {
	t.Helper()
	l, err := f.listingUC.Create(context.Background(), owner, listingInput(title))
	require.NoError(t, err)
	return l
}

var (
	alice = domain.Actor{UserID: "user-alice", Role: domain.RoleUser}
	bob   = domain.Actor{UserID: "user-bob", Role: domain.RoleUser}
	admin = domain.Actor{UserID: "user-admin", Role: domain.RoleAdmin}
	guest = domain.Actor{}
)
