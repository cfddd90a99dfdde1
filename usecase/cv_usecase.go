package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"job-board/domain"
)

// summaryFromImport caps how much imported text seeds an empty summary.
const summaryFromImport = 600

type CVUsecase struct {
	repo      CVRepository
	extractor TextExtractor
	renderer  CVRenderer
	now       func() time.Time
}

func NewCVUsecase(repo CVRepository, extractor TextExtractor, renderer CVRenderer) *CVUsecase {
	return &CVUsecase{repo: repo, extractor: extractor, renderer: renderer, now: utcNow}
}

func (uc *CVUsecase) Get(ctx context.Context, actor domain.Actor) (*domain.CV, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	return uc.repo.GetByUser(ctx, actor.UserID)
}

// Save replaces the user's CV, creating it on first save.
func (uc *CVUsecase) Save(ctx context.Context, actor domain.Actor, cv domain.CV) (*domain.CV, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := cv.Validate(); err != nil {
		return nil, err
	}
	existing, err := uc.loadOrNew(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	cv.ID = existing.ID
	cv.UserID = actor.UserID
	cv.CreatedAt = existing.CreatedAt
	cv.UpdatedAt = uc.now()
	if cv.RawText == "" {
		cv.RawText = existing.RawText
	}
	if err := uc.repo.Save(ctx, &cv); err != nil {
		return nil, fmt.Errorf("failed to save cv: %w", err)
	}
	return &cv, nil
}

// Import stores the text of an uploaded résumé and uses it to seed an empty
// summary.
func (uc *CVUsecase) Import(ctx context.Context, actor domain.Actor, filename string, data []byte) (*domain.CV, error) {
	if actor.UserID == "" {
		return nil, domain.ErrUnauthorized
	}
	text, err := uc.extractor.ExtractText(filename, data)
	if err != nil {
		return nil, err
	}
	cv, err := uc.loadOrNew(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	cv.RawText = text
	if strings.TrimSpace(cv.Summary) == "" {
		cv.Summary = truncateRunes(strings.Join(strings.Fields(text), " "), summaryFromImport)
	}
	cv.UpdatedAt = uc.now()
	if err := uc.repo.Save(ctx, cv); err != nil {
		return nil, fmt.Errorf("failed to save cv: %w", err)
	}
	return cv, nil
}

func (uc *CVUsecase) ExportPDF(ctx context.Context, actor domain.Actor) ([]byte, error) {
	cv, err := uc.Get(ctx, actor)
	if err != nil {
		return nil, err
	}
	return uc.renderer.Render(cv)
}

func (uc *CVUsecase) loadOrNew(ctx context.Context, userID string) (*domain.CV, error) {
	cv, err := uc.repo.GetByUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.CV{ID: uuid.NewString(), UserID: userID, CreatedAt: uc.now()}, nil
	}
	return cv, err
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
