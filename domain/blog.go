package domain

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

const MaxCommentLength = 2000

type BlogPost struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	AuthorID    string     `gorm:"size:36;index;not null" json:"author_id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Slug        string     `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Excerpt     string     `gorm:"type:text" json:"excerpt"`
	Tags        []string   `gorm:"serializer:json;type:text" json:"tags"`
	Published   bool       `gorm:"index" json:"published"`
	PublishedAt *time.Time `gorm:"index" json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Comment struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	PostID    string    `gorm:"size:36;index;not null" json:"post_id"`
	AuthorID  string    `gorm:"size:36;index;not null" json:"author_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type PostInput struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags"`
	Published bool     `json:"published"`
}

func (in PostInput) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(in.Title) == "" {
		v.Add("title", "is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		v.Add("content", "is required")
	}
	if Slugify(in.Title) == "" && strings.TrimSpace(in.Title) != "" {
		v.Add("title", "must contain letters or digits")
	}
	return v.OrNil()
}

func ValidateCommentBody(body string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(body))
	if n == 0 {
		return Invalid("body", "is required")
	}
	if n > MaxCommentLength {
		return Invalid("body", "is too long")
	}
	return nil
}

// NormalizeTags lower-cases, trims and de-duplicates tags.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Slugify turns a title into a URL path segment: lower-case letters and
// digits separated by single dashes.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r < utf8.RuneSelf && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if folded, ok := asciiFold[r]; ok {
				b.WriteString(folded)
				dash = false
			}
		default:
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

var asciiFold = map[rune]string{
	'à': "a", 'á': "a", 'â': "a", 'ä': "a", 'ã': "a", 'å': "a",
	'ç': "c", 'č': "c", 'ć': "c",
	'è': "e", 'é': "e", 'ê': "e", 'ë': "e",
	'ğ': "g",
	'ì': "i", 'í': "i", 'î': "i", 'ï': "i", 'ı': "i",
	'ñ': "n",
	'ò': "o", 'ó': "o", 'ô': "o", 'ö': "o", 'õ': "o", 'ø': "o",
	'ş': "s", 'š': "s", 'ß': "ss",
	'ù': "u", 'ú': "u", 'û': "u", 'ü': "u",
	'ý': "y", 'ÿ': "y",
	'ž': "z",
}
