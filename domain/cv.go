package domain

import (
	"strings"
	"time"
)

// CV is the structured résumé a user builds; one per user.
type CV struct {
	ID         string         `gorm:"primaryKey;size:36" json:"id"`
	UserID     string         `gorm:"size:36;uniqueIndex;not null" json:"user_id"`
	FullName   string         `gorm:"size:255" json:"full_name"`
	Headline   string         `gorm:"size:255" json:"headline"`
	Email      string         `gorm:"size:255" json:"email"`
	Phone      string         `gorm:"size:64" json:"phone"`
	Location   string         `gorm:"size:255" json:"location"`
	Summary    string         `gorm:"type:text" json:"summary"`
	Skills     []string       `gorm:"serializer:json;type:text" json:"skills"`
	Experience []CVExperience `gorm:"serializer:json;type:text" json:"experience"`
	Education  []CVEducation  `gorm:"serializer:json;type:text" json:"education"`
	RawText    string         `gorm:"type:text" json:"raw_text,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

type CVExperience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Start       string `json:"start"`
	End         string `json:"end,omitempty"`
	Description string `json:"description,omitempty"`
}

type CVEducation struct {
	School string `json:"school"`
	Degree string `json:"degree"`
	Start  string `json:"start"`
	End    string `json:"end,omitempty"`
}

func (cv *CV) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(cv.FullName) == "" {
		v.Add("full_name", "is required")
	}
	for _, e := range cv.Experience {
		if strings.TrimSpace(e.Title) == "" || strings.TrimSpace(e.Company) == "" {
			v.Add("experience", "entries need a title and a company")
			break
		}
	}
	for _, e := range cv.Education {
		if strings.TrimSpace(e.School) == "" {
			v.Add("education", "entries need a school")
			break
		}
	}
	return v.OrNil()
}
