package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-board/domain"
	"job-board/infrastructure"
)

type stubRenderer struct {
	rendered *domain.CV
}

func (r *stubRenderer) Render(cv *domain.CV) ([]byte, error) {
	r.rendered = cv
	return []byte("%PDF-1.7"), nil
}

func newCVUsecase(t *testing.T) (*CVUsecase, *stubRenderer) {
	renderer := &stubRenderer{}
	uc := NewCVUsecase(
		infrastructure.NewCVRepository(newTestDB(t)),
		infrastructure.NewDocumentExtractor(testLog()),
		renderer,
	)
	return uc, renderer
}

func TestCVUsecase_SaveUpserts(t *testing.T) {
	uc, _ := newCVUsecase(t)
	ctx := context.Background()

	_, err := uc.Get(ctx, alice)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.Save(ctx, alice, domain.CV{})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	first, err := uc.Save(ctx, alice, domain.CV{FullName: "Alice", Skills: []string{"go"}})
	require.NoError(t, err)

	second, err := uc.Save(ctx, alice, domain.CV{FullName: "Alice A.", Skills: []string{"go", "sql"}})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := uc.Get(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "Alice A.", got.FullName)
	assert.Equal(t, []string{"go", "sql"}, got.Skills)
}

func TestCVUsecase_Import(t *testing.T) {
	uc, _ := newCVUsecase(t)
	ctx := context.Background()

	_, err := uc.Import(ctx, alice, "cv.exe", []byte("x"))
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	cv, err := uc.Import(ctx, alice, "cv.txt", []byte("Go engineer\n\nTen years   of backend work."))
	require.NoError(t, err)
	assert.Equal(t, "Go engineer Ten years of backend work.", cv.Summary)
	assert.Contains(t, cv.RawText, "Ten years")

	saved, err := uc.Save(ctx, alice, domain.CV{FullName: "Alice", Summary: "Mine"})
	require.NoError(t, err)
	assert.Equal(t, cv.RawText, saved.RawText, "saving keeps the imported text")

	cv, err = uc.Import(ctx, alice, "cv.txt", []byte("Replacement text"))
	require.NoError(t, err)
	assert.Equal(t, "Mine", cv.Summary, "an existing summary is kept")
	assert.Equal(t, "Replacement text", cv.RawText)
}

func TestCVUsecase_ExportPDF(t *testing.T) {
	uc, renderer := newCVUsecase(t)
	ctx := context.Background()

	_, err := uc.ExportPDF(ctx, alice)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = uc.Save(ctx, alice, domain.CV{FullName: "Alice"})
	require.NoError(t, err)
	data, err := uc.ExportPDF(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))
	assert.Equal(t, "Alice", renderer.rendered.FullName)
}
