package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
)

// ListingFilter holds the optional search predicates. Empty fields match
// everything.
type ListingFilter struct {
	Search          string `form:"q" json:"q,omitempty"`
	Category        string `form:"category" json:"category,omitempty"`
	Location        string `form:"location" json:"location,omitempty"`
	JobType         string `form:"job_type" json:"job_type,omitempty"`
	ExperienceLevel string `form:"experience_level" json:"experience_level,omitempty"`
}

func (f ListingFilter) Normalize() ListingFilter {
	return ListingFilter{
		Search:          strings.TrimSpace(f.Search),
		Category:        strings.ToLower(strings.TrimSpace(f.Category)),
		Location:        strings.TrimSpace(f.Location),
		JobType:         strings.ToLower(strings.TrimSpace(f.JobType)),
		ExperienceLevel: strings.ToLower(strings.TrimSpace(f.ExperienceLevel)),
	}
}

func (f ListingFilter) Matches(l *JobListing) bool {
	f = f.Normalize()

	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(l.Title), needle) &&
			!strings.Contains(strings.ToLower(l.Company), needle) &&
			!strings.Contains(strings.ToLower(l.Description), needle) {
			return false
		}
	}
	if f.Category != "" && !strings.EqualFold(l.Category, f.Category) {
		return false
	}
	if f.Location != "" && !strings.Contains(strings.ToLower(l.Location), strings.ToLower(f.Location)) {
		return false
	}
	if f.JobType != "" && l.JobType != f.JobType {
		return false
	}
	if f.ExperienceLevel != "" && l.ExperienceLevel != f.ExperienceLevel {
		return false
	}
	return true
}

type ListingQuery struct {
	Filter   ListingFilter
	Sort     SortOrder
	Page     int
	PageSize int
}

func (q ListingQuery) Normalize() ListingQuery {
	q.Filter = q.Filter.Normalize()
	if q.Sort != SortOldest {
		q.Sort = SortNewest
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	return q
}

func (q ListingQuery) Offset() int {
	return PageOffset(q.Page, q.PageSize)
}

// PageOffset is the index of the first item on a 1-based page. It saturates
// at math.MaxInt instead of overflowing for absurd page numbers.
func PageOffset(page, pageSize int) int {
	if page < 1 || pageSize < 1 {
		return 0
	}
	if page-1 > math.MaxInt/pageSize {
		return math.MaxInt
	}
	return (page - 1) * pageSize
}

// CacheKey is stable for equivalent queries.
func (q ListingQuery) CacheKey() string {
	q = q.Normalize()
	f := q.Filter
	return fmt.Sprintf("q=%s|c=%s|l=%s|t=%s|e=%s|s=%s|p=%d|n=%d",
		strings.ToLower(f.Search), f.Category, strings.ToLower(f.Location),
		f.JobType, f.ExperienceLevel, q.Sort, q.Page, q.PageSize)
}

// FilterListings returns the listings matching f, keeping their order.
func FilterListings(listings []JobListing, f ListingFilter) []JobListing {
	out := make([]JobListing, 0, len(listings))
	for i := range listings {
		if f.Matches(&listings[i]) {
			out = append(out, listings[i])
		}
	}
	return out
}

// SortListings orders promoted listings first. Both groups follow the same
// creation-time order and equal timestamps fall back to ID, so the result is
// a total order.
func SortListings(listings []JobListing, order SortOrder, now time.Time) {
	sort.SliceStable(listings, func(i, j int) bool {
		a, b := &listings[i], &listings[j]
		pa, pb := a.IsPromoted(now), b.IsPromoted(now)
		if pa != pb {
			return pa
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if order == SortOldest {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

func NewPage[T any](items []T, total int64, page, pageSize int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if pageSize > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return Page[T]{Items: items, Total: total, Page: page, PageSize: pageSize, TotalPages: pages}
}

// Paginate slices items into the requested 1-based page.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	total := len(items)
	start := PageOffset(page, pageSize)
	if start > total {
		start = total
	}
	end := total
	if total-start > pageSize {
		end = start + pageSize
	}
	return NewPage(items[start:end], int64(total), page, pageSize)
}

// QueryListings applies filter, order and pagination in memory.
func QueryListings(listings []JobListing, q ListingQuery, now time.Time) Page[JobListing] {
	q = q.Normalize()
	matched := FilterListings(listings, q.Filter)
	SortListings(matched, q.Sort, now)
	return Paginate(matched, q.Page, q.PageSize)
}
