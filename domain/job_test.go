package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validListing() JobListing {
	return JobListing{
		Title:        "Backend Engineer",
		Company:      "Acme",
		Location:     "Berlin",
		Description:  "Build APIs",
		ContactEmail: "jobs@acme.test",
		Category:     "software",
		JobType:      "full-time",
		Status:       StatusActive,
	}
}

func TestJobListing_Validate(t *testing.T) {
	l := validListing()
	assert.NoError(t, l.Validate())

	l.Title = "  "
	l.ContactEmail = "not-an-email"
	l.Category = "astrology"
	l.SalaryMin, l.SalaryMax = 5000, 1000

	err := l.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "title")
	assert.Contains(t, verr.Fields, "contact_email")
	assert.Contains(t, verr.Fields, "category")
	assert.Equal(t, "minimum exceeds maximum", verr.Fields["salary"])
}

func TestJobListing_Validate_UnknownStatus(t *testing.T) {
	l := validListing()
	l.Status = "archived"
	assert.Error(t, l.Validate())
}

func TestJobListing_PromoteExtendsActiveWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := validListing()
	assert.False(t, l.IsPromoted(now))

	l.Promote(now, 7*24*time.Hour)
	require.NotNil(t, l.PromotedUntil)
	assert.True(t, l.IsPromoted(now))
	assert.Equal(t, now.Add(7*24*time.Hour), *l.PromotedUntil)

	l.Promote(now.Add(24*time.Hour), 7*24*time.Hour)
	assert.Equal(t, now.Add(14*24*time.Hour), *l.PromotedUntil)
}

func TestJobListing_PromoteRestartsExpiredWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	l := validListing()
	l.PromotedUntil = &past

	l.Promote(now, time.Hour)
	assert.Equal(t, now.Add(time.Hour), *l.PromotedUntil)
}

func TestJobListing_IsPublic(t *testing.T) {
	now := time.Now().UTC()
	l := validListing()
	l.ExpiresAt = now.Add(time.Hour)
	assert.True(t, l.IsPublic(now))

	l.ExpiresAt = now.Add(-time.Hour)
	assert.False(t, l.IsPublic(now))

	l.ExpiresAt = now.Add(time.Hour)
	l.Status = StatusDraft
	assert.False(t, l.IsPublic(now))
}

func TestListingPatch_Apply(t *testing.T) {
	l := validListing()
	title := "  Senior Backend Engineer "
	category := "ENGINEERING"
	max := int64(9000)

	ListingPatch{Title: &title, Category: &category, SalaryMax: &max}.Apply(&l)

	assert.Equal(t, "Senior Backend Engineer", l.Title)
	assert.Equal(t, "engineering", l.Category)
	assert.Equal(t, int64(9000), l.SalaryMax)
	assert.Equal(t, "Acme", l.Company)
}
