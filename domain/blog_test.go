package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Hello, World!":              "hello-world",
		"  Go 1.24 released  ":       "go-1-24-released",
		"Çalışma Koşulları":          "calisma-kosullari",
		"---":                        "",
		"Remote work: tips & tricks": "remote-work-tips-tricks",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"go", "remote"}, NormalizeTags([]string{" Go", "remote", "GO", ""}))
}

func TestValidateCommentBody(t *testing.T) {
	assert.Error(t, ValidateCommentBody("   "))
	assert.NoError(t, ValidateCommentBody("nice post"))
	assert.Error(t, ValidateCommentBody(strings.Repeat("x", MaxCommentLength+1)))
}
