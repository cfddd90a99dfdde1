package infrastructure

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"job-board/domain"
)

var repoNow = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenDatabase("sqlite", "")
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedListings(t *testing.T, repo *ListingRepository) []domain.JobListing {
	t.Helper()
	promoted := repoNow.Add(72 * time.Hour)
	lapsed := repoNow.Add(-time.Hour)

	categories := []string{"software", "design", "software", "sales"}
	var all []domain.JobListing
	for i := 0; i < 12; i++ {
		l := domain.JobListing{
			ID:           fmt.Sprintf("l-%02d", i),
			OwnerID:      "owner",
			Title:        fmt.Sprintf("Role %d", i),
			Company:      "Acme",
			Location:     "Berlin",
			Description:  "Work on things.",
			Category:     categories[i%len(categories)],
			JobType:      "full-time",
			ContactEmail: "jobs@acme.test",
			Status:       domain.StatusActive,
			ExpiresAt:    repoNow.Add(24 * time.Hour),
			CreatedAt:    repoNow.Add(-time.Duration(i/2) * time.Hour),
			UpdatedAt:    repoNow,
		}
		switch i {
		case 3, 8:
			l.PromotedUntil = &promoted
		case 5:
			l.PromotedUntil = &lapsed
		case 6:
			l.Status = domain.StatusDraft
		case 7:
			l.ExpiresAt = repoNow.Add(-time.Minute)
		case 9:
			l.Title = "Senior Go Engineer"
			l.Location = "Remote"
		case 10:
			l.Title = "Growth Lead, 100% remote"
		case 11:
			l.Company = "Node_Works!"
		}
		require.NoError(t, repo.Create(context.Background(), &l))
		all = append(all, l)
	}
	return all
}

func publicOnly(listings []domain.JobListing) []domain.JobListing {
	var out []domain.JobListing
	for _, l := range listings {
		if l.Status == domain.StatusActive && l.ExpiresAt.After(repoNow) {
			out = append(out, l)
		}
	}
	return out
}

func listingIDs(ls []domain.JobListing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.ID
	}
	return out
}

func TestListingRepository_SearchMatchesInMemoryQuery(t *testing.T) {
	repo := NewListingRepository(newTestDB(t))
	public := publicOnly(seedListings(t, repo))

	queries := []domain.ListingQuery{
		{},
		{Sort: domain.SortOldest},
		{Filter: domain.ListingFilter{Category: "Software"}},
		{Filter: domain.ListingFilter{Search: "go"}},
		{Filter: domain.ListingFilter{Location: "berlin"}, Page: 2, PageSize: 3},
		{Sort: domain.SortOldest, Page: 3, PageSize: 4},
		{Filter: domain.ListingFilter{Search: "%"}},
		{Filter: domain.ListingFilter{Search: "100%"}},
		{Filter: domain.ListingFilter{Search: "_"}},
		{Filter: domain.ListingFilter{Search: "e_w"}},
		{Filter: domain.ListingFilter{Search: "!"}},
		{Filter: domain.ListingFilter{Search: "!%"}},
		{Filter: domain.ListingFilter{Location: "%"}},
		{Filter: domain.ListingFilter{Location: "b_rlin"}},
	}
	for _, q := range queries {
		t.Run(q.CacheKey(), func(t *testing.T) {
			items, total, err := repo.Search(context.Background(), q, repoNow)
			require.NoError(t, err)

			want := domain.QueryListings(public, q, repoNow)
			assert.Equal(t, want.Total, total)
			assert.Equal(t, listingIDs(want.Items), listingIDs(items))
		})
	}
}

func TestListingRepository_SearchPromotedFirst(t *testing.T) {
	repo := NewListingRepository(newTestDB(t))
	seedListings(t, repo)

	items, total, err := repo.Search(context.Background(), domain.ListingQuery{}, repoNow)
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
	require.GreaterOrEqual(t, len(items), 2)
	assert.Equal(t, []string{"l-03", "l-08"}, listingIDs(items[:2]))
}

func TestListingRepository_DeleteRemovesFavorites(t *testing.T) {
	db := newTestDB(t)
	repo := NewListingRepository(db)
	favorites := NewFavoriteRepository(db)
	seedListings(t, repo)
	ctx := context.Background()

	require.NoError(t, favorites.Add(ctx, "u-1", "l-01"))
	require.NoError(t, repo.Delete(ctx, "l-01"))

	ids, err := favorites.ListingIDs(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, ids)

	assert.ErrorIs(t, repo.Delete(ctx, "l-01"), domain.ErrNotFound)
	_, err = repo.Get(ctx, "l-01")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListingRepository_ExpireBefore(t *testing.T) {
	db := newTestDB(t)
	repo := NewListingRepository(db)
	seedListings(t, repo)

	ids, err := repo.ExpireBefore(context.Background(), repoNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"l-07"}, ids)

	l, err := repo.Get(context.Background(), "l-07")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExpired, l.Status)

	ids, err = repo.ExpireBefore(context.Background(), repoNow)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestListingRepository_UpdateKeepsViewsAndPromotion(t *testing.T) {
	repo := NewListingRepository(newTestDB(t))
	seedListings(t, repo)
	ctx := context.Background()

	stale, err := repo.Get(ctx, "l-01")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.IncrementViews(ctx, "l-01"))
	}
	until, err := repo.ExtendPromotion(ctx, "l-01", 7*24*time.Hour, repoNow)
	require.NoError(t, err)

	stale.Title = "Renamed"
	stale.Status = domain.StatusClosed
	require.NoError(t, repo.Update(ctx, stale))

	got, err := repo.Get(ctx, "l-01")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, domain.StatusClosed, got.Status)
	assert.Equal(t, int64(5), got.Views)
	require.NotNil(t, got.PromotedUntil)
	assert.True(t, until.Equal(*got.PromotedUntil))
}

func TestListingRepository_ExtendPromotion(t *testing.T) {
	repo := NewListingRepository(newTestDB(t))
	seedListings(t, repo)
	ctx := context.Background()

	until, err := repo.ExtendPromotion(ctx, "l-00", 24*time.Hour, repoNow)
	require.NoError(t, err)
	assert.True(t, repoNow.Add(24*time.Hour).Equal(until))

	until, err = repo.ExtendPromotion(ctx, "l-00", 24*time.Hour, repoNow.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, repoNow.Add(48*time.Hour).Equal(until), "an active promotion is extended from its end")

	until, err = repo.ExtendPromotion(ctx, "l-05", 24*time.Hour, repoNow)
	require.NoError(t, err)
	assert.True(t, repoNow.Add(24*time.Hour).Equal(until), "a lapsed promotion restarts from now")

	_, err = repo.ExtendPromotion(ctx, "missing", 24*time.Hour, repoNow)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
