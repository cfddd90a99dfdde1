package domain

import (
	"net/mail"
	"strings"
	"time"
)

type ListingStatus string

const (
	StatusDraft   ListingStatus = "draft"
	StatusActive  ListingStatus = "active"
	StatusClosed  ListingStatus = "closed"
	StatusExpired ListingStatus = "expired"
)

func (s ListingStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusClosed, StatusExpired:
		return true
	}
	return false
}

// Categories is the fixed set a listing may be filed under. The assistant
// maps free text onto this list too.
var Categories = []string{
	"software",
	"design",
	"marketing",
	"sales",
	"finance",
	"healthcare",
	"education",
	"customer-service",
	"engineering",
	"hospitality",
	"logistics",
	"other",
}

var JobTypes = []string{"full-time", "part-time", "contract", "internship", "temporary"}

var ExperienceLevels = []string{"entry", "mid", "senior", "lead"}

// JobListing is a job posting. A listing is promoted while PromotedUntil lies
// in the future.
type JobListing struct {
	ID              string        `gorm:"primaryKey;size:36" json:"id"`
	OwnerID         string        `gorm:"size:36;index;not null" json:"owner_id"`
	Title           string        `gorm:"size:255;not null" json:"title"`
	Company         string        `gorm:"size:255;not null" json:"company"`
	Location        string        `gorm:"size:255;not null" json:"location"`
	Description     string        `gorm:"type:text;not null" json:"description"`
	Category        string        `gorm:"size:64;index" json:"category"`
	JobType         string        `gorm:"size:32" json:"job_type"`
	ExperienceLevel string        `gorm:"size:32" json:"experience_level"`
	SalaryMin       int64         `json:"salary_min,omitempty"`
	SalaryMax       int64         `json:"salary_max,omitempty"`
	Currency        string        `gorm:"size:3" json:"currency,omitempty"`
	ContactEmail    string        `gorm:"size:255;not null" json:"contact_email"`
	ContactPhone    string        `gorm:"size:64" json:"contact_phone,omitempty"`
	ApplyURL        string        `gorm:"size:512" json:"apply_url,omitempty"`
	Status          ListingStatus `gorm:"size:16;index;not null" json:"status"`
	PromotedUntil   *time.Time    `gorm:"index" json:"promoted_until,omitempty"`
	ExpiresAt       time.Time     `gorm:"index" json:"expires_at"`
	Views           int64         `json:"views"`
	CreatedAt       time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (l *JobListing) IsPromoted(now time.Time) bool {
	return l.PromotedUntil != nil && l.PromotedUntil.After(now)
}

// IsPublic reports whether the listing shows up in public search.
func (l *JobListing) IsPublic(now time.Time) bool {
	if l.Status != StatusActive {
		return false
	}
	return l.ExpiresAt.IsZero() || l.ExpiresAt.After(now)
}

// Promote extends the promotion window by d. An expired promotion restarts
// from now rather than from its old end.
func (l *JobListing) Promote(now time.Time, d time.Duration) {
	start := now
	if l.IsPromoted(now) {
		start = *l.PromotedUntil
	}
	until := start.Add(d)
	l.PromotedUntil = &until
}

func (l *JobListing) Validate() error {
	v := &ValidationError{}

	required := map[string]string{
		"title":         l.Title,
		"company":       l.Company,
		"location":      l.Location,
		"description":   l.Description,
		"contact_email": l.ContactEmail,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			v.Add(field, "is required")
		}
	}
	if len(l.Title) > 255 {
		v.Add("title", "must be at most 255 characters")
	}
	if l.ContactEmail != "" {
		if _, err := mail.ParseAddress(l.ContactEmail); err != nil {
			v.Add("contact_email", "is not a valid email address")
		}
	}
	if l.Category != "" && !contains(Categories, l.Category) {
		v.Add("category", "is not a known category")
	}
	if l.JobType != "" && !contains(JobTypes, l.JobType) {
		v.Add("job_type", "is not a known job type")
	}
	if l.ExperienceLevel != "" && !contains(ExperienceLevels, l.ExperienceLevel) {
		v.Add("experience_level", "is not a known experience level")
	}
	if l.SalaryMin < 0 || l.SalaryMax < 0 {
		v.Add("salary", "must not be negative")
	} else if l.SalaryMin > 0 && l.SalaryMax > 0 && l.SalaryMin > l.SalaryMax {
		v.Add("salary", "minimum exceeds maximum")
	}
	if !l.Status.Valid() {
		v.Add("status", "is not a known status")
	}
	return v.OrNil()
}

// ListingInput carries the user-editable fields of a listing.
type ListingInput struct {
	Title           string `json:"title"`
	Company         string `json:"company"`
	Location        string `json:"location"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	JobType         string `json:"job_type"`
	ExperienceLevel string `json:"experience_level"`
	SalaryMin       int64  `json:"salary_min"`
	SalaryMax       int64  `json:"salary_max"`
	Currency        string `json:"currency"`
	ContactEmail    string `json:"contact_email"`
	ContactPhone    string `json:"contact_phone"`
	ApplyURL        string `json:"apply_url"`
	Draft           bool   `json:"draft"`
}

func (in ListingInput) Apply(l *JobListing) {
	l.Title = strings.TrimSpace(in.Title)
	l.Company = strings.TrimSpace(in.Company)
	l.Location = strings.TrimSpace(in.Location)
	l.Description = strings.TrimSpace(in.Description)
	l.Category = strings.ToLower(strings.TrimSpace(in.Category))
	l.JobType = strings.ToLower(strings.TrimSpace(in.JobType))
	l.ExperienceLevel = strings.ToLower(strings.TrimSpace(in.ExperienceLevel))
	l.SalaryMin = in.SalaryMin
	l.SalaryMax = in.SalaryMax
	l.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	l.ContactEmail = strings.TrimSpace(in.ContactEmail)
	l.ContactPhone = strings.TrimSpace(in.ContactPhone)
	l.ApplyURL = strings.TrimSpace(in.ApplyURL)
}

// ListingPatch is a partial update; nil fields are left untouched.
type ListingPatch struct {
	Title           *string `json:"title"`
	Company         *string `json:"company"`
	Location        *string `json:"location"`
	Description     *string `json:"description"`
	Category        *string `json:"category"`
	JobType         *string `json:"job_type"`
	ExperienceLevel *string `json:"experience_level"`
	SalaryMin       *int64  `json:"salary_min"`
	SalaryMax       *int64  `json:"salary_max"`
	Currency        *string `json:"currency"`
	ContactEmail    *string `json:"contact_email"`
	ContactPhone    *string `json:"contact_phone"`
	ApplyURL        *string `json:"apply_url"`
}

func (p ListingPatch) Apply(l *JobListing) {
	setString := func(dst *string, src *string, fn func(string) string) {
		if src != nil {
			*dst = fn(strings.TrimSpace(*src))
		}
	}
	keep := func(s string) string { return s }

	setString(&l.Title, p.Title, keep)
	setString(&l.Company, p.Company, keep)
	setString(&l.Location, p.Location, keep)
	setString(&l.Description, p.Description, keep)
	setString(&l.Category, p.Category, strings.ToLower)
	setString(&l.JobType, p.JobType, strings.ToLower)
	setString(&l.ExperienceLevel, p.ExperienceLevel, strings.ToLower)
	setString(&l.Currency, p.Currency, strings.ToUpper)
	setString(&l.ContactEmail, p.ContactEmail, keep)
	setString(&l.ContactPhone, p.ContactPhone, keep)
	setString(&l.ApplyURL, p.ApplyURL, keep)
	if p.SalaryMin != nil {
		l.SalaryMin = *p.SalaryMin
	}
	if p.SalaryMax != nil {
		l.SalaryMax = *p.SalaryMax
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// IsCategory reports whether c is one of Categories.
func IsCategory(c string) bool {
	return contains(Categories, c)
}
