package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"job-board/domain"
)

var staticPages = []string{"/", "/jobs", "/blog", "/pricing", "/cv-builder"}

type SitemapUsecase struct {
	listings *ListingUsecase
	blog     *BlogUsecase
	writer   SitemapWriter
	pinger   SitemapPinger
	siteURL  string
	log      *logrus.Entry
	now      func() time.Time

	mu sync.Mutex
}

func NewSitemapUsecase(listings *ListingUsecase, blog *BlogUsecase, writer SitemapWriter, pinger SitemapPinger, siteURL string, log *logrus.Entry) *SitemapUsecase {
	return &SitemapUsecase{
		listings: listings,
		blog:     blog,
		writer:   writer,
		pinger:   pinger,
		siteURL:  strings.TrimRight(siteURL, "/"),
		log:      log,
		now:      utcNow,
	}
}

// SitemapEntries lists static pages, public listings and published posts.
func SitemapEntries(siteURL string, listings []domain.JobListing, posts []domain.BlogPost, now time.Time) []domain.SitemapEntry {
	siteURL = strings.TrimRight(siteURL, "/")
	entries := make([]domain.SitemapEntry, 0, len(staticPages)+len(listings)+len(posts))
	for _, p := range staticPages {
		entries = append(entries, domain.SitemapEntry{Loc: siteURL + p, ChangeFreq: "daily", Priority: 1.0})
	}
	for i := range listings {
		l := &listings[i]
		if !l.IsPublic(now) {
			continue
		}
		priority := 0.6
		if l.IsPromoted(now) {
			priority = 0.8
		}
		entries = append(entries, domain.SitemapEntry{
			Loc:        siteURL + "/jobs/" + l.ID,
			LastMod:    l.UpdatedAt,
			ChangeFreq: "weekly",
			Priority:   priority,
		})
	}
	for _, p := range posts {
		if !p.Published {
			continue
		}
		entries = append(entries, domain.SitemapEntry{
			Loc:        siteURL + "/blog/" + p.Slug,
			LastMod:    p.UpdatedAt,
			ChangeFreq: "monthly",
			Priority:   0.5,
		})
	}
	return entries
}

// Regenerate rewrites the sitemap and pings search engines. Ping failures
// never fail the run. It returns the number of URLs written.
func (uc *SitemapUsecase) Regenerate(ctx context.Context) (int, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	listings, err := uc.listings.PublicListings(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load listings: %w", err)
	}
	posts, err := uc.blog.PublishedPosts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load posts: %w", err)
	}

	now := uc.now()
	entries := SitemapEntries(uc.siteURL, listings, posts, now)
	if err := uc.writer.Write(entries, now); err != nil {
		return 0, fmt.Errorf("failed to write sitemap: %w", err)
	}

	accepted := uc.pinger.Ping(ctx, uc.writer.URL())
	uc.log.WithFields(logrus.Fields{
		"urls":  len(entries),
		"pings": accepted,
	}).Info("sitemap regenerated")
	return len(entries), nil
}

// HandleEvent regenerates after a listing change.
func (uc *SitemapUsecase) HandleEvent(ctx context.Context, ev domain.ListingEvent) {
	if _, err := uc.Regenerate(ctx); err != nil {
		uc.log.WithError(err).WithFields(logrus.Fields{
			"event":      ev.Type,
			"listing_id": ev.ListingID,
		}).Error("sitemap regeneration failed")
	}
}
