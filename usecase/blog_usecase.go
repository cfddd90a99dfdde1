package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"job-board/domain"
)

const excerptLength = 200

type BlogUsecase struct {
	repo BlogRepository
	log  *logrus.Entry
	now  func() time.Time
}

func NewBlogUsecase(repo BlogRepository, log *logrus.Entry) *BlogUsecase {
	return &BlogUsecase{repo: repo, log: log, now: utcNow}
}

func (uc *BlogUsecase) CreatePost(ctx context.Context, actor domain.Actor, in domain.PostInput) (*domain.BlogPost, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	slug, err := uc.repo.UniqueSlug(ctx, domain.Slugify(in.Title), "")
	if err != nil {
		return nil, err
	}

	now := uc.now()
	p := &domain.BlogPost{
		ID:        uuid.NewString(),
		AuthorID:  actor.UserID,
		Slug:      slug,
		CreatedAt: now,
	}
	uc.apply(p, in, now)
	if err := uc.repo.CreatePost(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return p, nil
}

// UpdatePost re-derives the slug when the title changes.
func (uc *BlogUsecase) UpdatePost(ctx context.Context, actor domain.Actor, slug string, in domain.PostInput) (*domain.BlogPost, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p, err := uc.repo.GetPostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) != p.Title {
		if p.Slug, err = uc.repo.UniqueSlug(ctx, domain.Slugify(in.Title), p.ID); err != nil {
			return nil, err
		}
	}
	uc.apply(p, in, uc.now())
	if err := uc.repo.UpdatePost(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}
	return p, nil
}

func (uc *BlogUsecase) apply(p *domain.BlogPost, in domain.PostInput, now time.Time) {
	p.Title = strings.TrimSpace(in.Title)
	p.Content = in.Content
	p.Tags = domain.NormalizeTags(in.Tags)
	p.Excerpt = uc.excerpt(in.Content)
	if in.Published && p.PublishedAt == nil {
		p.PublishedAt = &now
	}
	p.Published = in.Published
	p.UpdatedAt = now
}

// excerpt renders the HTML body as markdown and cuts it at excerptLength
// runes.
func (uc *BlogUsecase) excerpt(html string) string {
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		uc.log.WithError(err).Debug("excerpt: markdown conversion failed")
		md = html
	}
	md = strings.Join(strings.Fields(md), " ")
	if utf8.RuneCountInString(md) <= excerptLength {
		return md
	}
	runes := []rune(md)
	return strings.TrimSpace(string(runes[:excerptLength])) + "…"
}

func (uc *BlogUsecase) DeletePost(ctx context.Context, actor domain.Actor, slug string) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	p, err := uc.repo.GetPostBySlug(ctx, slug)
	if err != nil {
		return err
	}
	return uc.repo.DeletePost(ctx, p.ID)
}

// GetPost hides drafts from everyone but admins.
func (uc *BlogUsecase) GetPost(ctx context.Context, actor domain.Actor, slug string) (*domain.BlogPost, error) {
	p, err := uc.repo.GetPostBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !p.Published && !actor.IsAdmin() {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (uc *BlogUsecase) ListPosts(ctx context.Context, actor domain.Actor, tag string, page, pageSize int) (domain.Page[domain.BlogPost], error) {
	q := domain.ListingQuery{Page: page, PageSize: pageSize}.Normalize()
	tag = strings.ToLower(strings.TrimSpace(tag))

	posts, total, err := uc.repo.ListPosts(ctx, tag, !actor.IsAdmin(), q.Page, q.PageSize)
	if err != nil {
		return domain.Page[domain.BlogPost]{}, fmt.Errorf("failed to list posts: %w", err)
	}
	return domain.NewPage(posts, total, q.Page, q.PageSize), nil
}

func (uc *BlogUsecase) PublishedPosts(ctx context.Context) ([]domain.BlogPost, error) {
	return uc.repo.ListPublished(ctx)
}

func (uc *BlogUsecase) AddComment(ctx context.Context, actor domain.Actor, slug, body string) (*domain.Comment, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := domain.ValidateCommentBody(body); err != nil {
		return nil, err
	}
	p, err := uc.GetPost(ctx, actor, slug)
	if err != nil {
		return nil, err
	}
	c := &domain.Comment{
		ID:        uuid.NewString(),
		PostID:    p.ID,
		AuthorID:  actor.UserID,
		Body:      strings.TrimSpace(body),
		CreatedAt: uc.now(),
	}
	if err := uc.repo.CreateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return c, nil
}

func (uc *BlogUsecase) ListComments(ctx context.Context, actor domain.Actor, slug string) ([]domain.Comment, error) {
	p, err := uc.GetPost(ctx, actor, slug)
	if err != nil {
		return nil, err
	}
	return uc.repo.ListComments(ctx, p.ID)
}

// DeleteComment is allowed for the comment author and admins.
func (uc *BlogUsecase) DeleteComment(ctx context.Context, actor domain.Actor, id string) error {
	if actor.UserID == "" {
		return domain.ErrUnauthorized
	}
	c, err := uc.repo.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanModify(c.AuthorID) {
		return domain.ErrForbidden
	}
	return uc.repo.DeleteComment(ctx, id)
}
