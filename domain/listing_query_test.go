package domain

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

func listingAt(id string, minutes int) JobListing {
	l := validListing()
	l.ID = id
	l.CreatedAt = base.Add(time.Duration(minutes) * time.Minute)
	return l
}

func ids(ls []JobListing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.ID
	}
	return out
}

func TestListingFilter_Matches(t *testing.T) {
	l := validListing()
	l.Location = "Berlin, Germany"
	l.ExperienceLevel = "senior"

	tests := []struct {
		name   string
		filter ListingFilter
		want   bool
	}{
		{"empty filter", ListingFilter{}, true},
		{"whitespace is unset", ListingFilter{Search: "   ", Category: " "}, true},
		{"search title", ListingFilter{Search: "backend"}, true},
		{"search company", ListingFilter{Search: "ACME"}, true},
		{"search description", ListingFilter{Search: "apis"}, true},
		{"search miss", ListingFilter{Search: "frontend"}, false},
		{"category equality", ListingFilter{Category: "Software"}, true},
		{"category substring is not enough", ListingFilter{Category: "soft"}, false},
		{"location substring", ListingFilter{Location: "germany"}, true},
		{"location miss", ListingFilter{Location: "paris"}, false},
		{"job type", ListingFilter{JobType: "full-time"}, true},
		{"job type miss", ListingFilter{JobType: "contract"}, false},
		{"experience", ListingFilter{ExperienceLevel: "senior"}, true},
		{"experience miss", ListingFilter{ExperienceLevel: "entry"}, false},
		{"all predicates", ListingFilter{Search: "engineer", Category: "software", Location: "berlin", JobType: "full-time", ExperienceLevel: "senior"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(&l))
		})
	}
}

func TestSortListings_NewestWithPromotedFirst(t *testing.T) {
	now := base.Add(24 * time.Hour)
	future := now.Add(time.Hour)
	expired := now.Add(-time.Hour)

	a := listingAt("a", 1)
	b := listingAt("b", 2)
	c := listingAt("c", 3)
	c.PromotedUntil = &expired
	d := listingAt("d", 0)
	d.PromotedUntil = &future
	e := listingAt("e", 5)
	e.PromotedUntil = &future

	ls := []JobListing{a, b, c, d, e}
	SortListings(ls, SortNewest, now)
	assert.Equal(t, []string{"e", "d", "c", "b", "a"}, ids(ls))

	SortListings(ls, SortOldest, now)
	assert.Equal(t, []string{"d", "e", "a", "b", "c"}, ids(ls))
}

func TestSortListings_TieBreaksOnID(t *testing.T) {
	now := base.Add(time.Hour)
	future := now.Add(time.Hour)

	x := listingAt("x", 0)
	y := listingAt("y", 0)
	p1 := listingAt("p2", 0)
	p1.PromotedUntil = &future
	p2 := listingAt("p1", 0)
	p2.PromotedUntil = &future

	for _, order := range []SortOrder{SortNewest, SortOldest} {
		ls := []JobListing{y, p1, x, p2}
		SortListings(ls, order, now)
		assert.Equal(t, []string{"p1", "p2", "x", "y"}, ids(ls), order)
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	p := Paginate(items, 1, 3)
	assert.Equal(t, []int{1, 2, 3}, p.Items)
	assert.Equal(t, int64(7), p.Total)
	assert.Equal(t, 3, p.TotalPages)

	p = Paginate(items, 3, 3)
	assert.Equal(t, []int{7}, p.Items)

	p = Paginate(items, 9, 3)
	assert.Empty(t, p.Items)
	assert.NotNil(t, p.Items)
	assert.Equal(t, int64(7), p.Total)

	p = Paginate(items, 0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageSize, p.PageSize)
	assert.Len(t, p.Items, 7)
}

func TestPaginate_HugePageIsEmpty(t *testing.T) {
	items := []int{1, 2, 3}

	for _, page := range []int{math.MaxInt, math.MaxInt / 2, math.MaxInt/12 + 2} {
		p := Paginate(items, page, 12)
		assert.Empty(t, p.Items)
		assert.Equal(t, int64(3), p.Total)
	}

	q := ListingQuery{Page: math.MaxInt, PageSize: MaxPageSize}.Normalize()
	assert.Equal(t, math.MaxInt, q.Offset())
	assert.Equal(t, 24, ListingQuery{Page: 3, PageSize: 12}.Offset())
}

func TestQueryListings_PagesCoverEverythingOnce(t *testing.T) {
	now := base.Add(48 * time.Hour)
	future := now.Add(time.Hour)

	var ls []JobListing
	for i := 0; i < 25; i++ {
		l := listingAt(fmt.Sprintf("id-%02d", i), i%7)
		if i%5 == 0 {
			l.PromotedUntil = &future
		}
		ls = append(ls, l)
	}

	q := ListingQuery{PageSize: 4}
	first := QueryListings(ls, q, now)
	require.Equal(t, 7, first.TotalPages)

	seen := map[string]bool{}
	var all []string
	for page := 1; page <= first.TotalPages; page++ {
		q.Page = page
		for _, l := range QueryListings(ls, q, now).Items {
			assert.False(t, seen[l.ID], "duplicate %s", l.ID)
			seen[l.ID] = true
			all = append(all, l.ID)
		}
	}
	assert.Len(t, all, 25)
	for i := 0; i < 5; i++ {
		assert.Contains(t, []string{"id-00", "id-05", "id-10", "id-15", "id-20"}, all[i])
	}
}

func TestListingQuery_NormalizeAndCacheKey(t *testing.T) {
	q := ListingQuery{Filter: ListingFilter{Search: " Go "}, Sort: "random", Page: -2, PageSize: 1000}.Normalize()
	assert.Equal(t, SortNewest, q.Sort)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, MaxPageSize, q.PageSize)
	assert.Equal(t, 0, q.Offset())

	a := ListingQuery{Filter: ListingFilter{Search: "go", Location: "Berlin"}}
	b := ListingQuery{Filter: ListingFilter{Search: " GO", Location: "berlin "}, Page: 1, PageSize: DefaultPageSize, Sort: SortNewest}
	assert.Equal(t, a.CacheKey(), b.CacheKey())
}
