package usecase

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-board/domain"
	"job-board/infrastructure"
)

func newBlogUsecase(t *testing.T) *BlogUsecase {
	return NewBlogUsecase(infrastructure.NewBlogRepository(newTestDB(t)), testLog())
}

func TestBlogUsecase_CreatePost(t *testing.T) {
	uc := newBlogUsecase(t)
	ctx := context.Background()
	in := domain.PostInput{
		Title:     "Hello World",
		Content:   "<p>Hello <strong>world</strong></p>",
		Tags:      []string{"News", " news ", "Go"},
		Published: true,
	}

	_, err := uc.CreatePost(ctx, alice, in)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	p, err := uc.CreatePost(ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, "hello-world", p.Slug)
	assert.Equal(t, "Hello **world**", p.Excerpt)
	assert.Equal(t, []string{"news", "go"}, p.Tags)
	require.NotNil(t, p.PublishedAt)

	again, err := uc.CreatePost(ctx, admin, in)
	require.NoError(t, err)
	assert.Equal(t, "hello-world-2", again.Slug)
}

func TestBlogUsecase_ExcerptIsTruncated(t *testing.T) {
	uc := newBlogUsecase(t)
	long := "<p>" + strings.Repeat("word ", 100) + "</p>"

	excerpt := uc.excerpt(long)
	assert.LessOrEqual(t, utf8.RuneCountInString(excerpt), excerptLength+1)
	assert.True(t, strings.HasSuffix(excerpt, "…"))
}

func TestBlogUsecase_DraftsAreHidden(t *testing.T) {
	uc := newBlogUsecase(t)
	ctx := context.Background()

	_, err := uc.CreatePost(ctx, admin, domain.PostInput{Title: "Public", Content: "<p>a</p>", Tags: []string{"go"}, Published: true})
	require.NoError(t, err)
	_, err = uc.CreatePost(ctx, admin, domain.PostInput{Title: "Secret", Content: "<p>b</p>", Tags: []string{"go"}})
	require.NoError(t, err)

	_, err = uc.GetPost(ctx, guest, "secret")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.GetPost(ctx, admin, "secret")
	assert.NoError(t, err)

	page, err := uc.ListPosts(ctx, guest, "", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "public", page.Items[0].Slug)

	page, err = uc.ListPosts(ctx, admin, "GO", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = uc.ListPosts(ctx, admin, "rust", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	for _, tag := range []string{"g_", "%", "_o"} {
		page, err = uc.ListPosts(ctx, admin, tag, 1, 10)
		require.NoError(t, err)
		assert.Empty(t, page.Items, "tag %q must match literally", tag)
	}
}

func TestBlogUsecase_UpdateReslugs(t *testing.T) {
	uc := newBlogUsecase(t)
	ctx := context.Background()
	p, err := uc.CreatePost(ctx, admin, domain.PostInput{Title: "First Title", Content: "<p>a</p>"})
	require.NoError(t, err)
	assert.Nil(t, p.PublishedAt)

	updated, err := uc.UpdatePost(ctx, admin, p.Slug, domain.PostInput{Title: "Second Title", Content: "<p>b</p>", Published: true})
	require.NoError(t, err)
	assert.Equal(t, "second-title", updated.Slug)
	assert.NotNil(t, updated.PublishedAt)

	_, err = uc.GetPost(ctx, guest, "first-title")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, uc.DeletePost(ctx, admin, "second-title"))
	_, err = uc.GetPost(ctx, admin, "second-title")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBlogUsecase_Comments(t *testing.T) {
	uc := newBlogUsecase(t)
	ctx := context.Background()
	_, err := uc.CreatePost(ctx, admin, domain.PostInput{Title: "Post", Content: "<p>a</p>", Published: true})
	require.NoError(t, err)

	_, err = uc.AddComment(ctx, guest, "post", "hi")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.AddComment(ctx, alice, "post", "   ")
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	c, err := uc.AddComment(ctx, alice, "post", " Nice post ")
	require.NoError(t, err)
	assert.Equal(t, "Nice post", c.Body)

	comments, err := uc.ListComments(ctx, guest, "post")
	require.NoError(t, err)
	require.Len(t, comments, 1)

	assert.ErrorIs(t, uc.DeleteComment(ctx, bob, c.ID), domain.ErrForbidden)
	require.NoError(t, uc.DeleteComment(ctx, alice, c.ID))

	comments, err = uc.ListComments(ctx, guest, "post")
	require.NoError(t, err)
	assert.Empty(t, comments)
}
