package infrastructure

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/unidoc/unipdf/v3/creator"
	"github.com/unidoc/unipdf/v3/model"

	"job-board/domain"
)

type pdfBlock struct {
	text  string
	font  *model.PdfFont
	size  float64
	after float64
}

// CVRenderer lays a CV out as a single-column PDF.
type CVRenderer struct{}

func NewCVRenderer() *CVRenderer {
	return &CVRenderer{}
}

func (CVRenderer) Render(cv *domain.CV) ([]byte, error) {
	regular, err := model.NewStandard14Font(model.HelveticaName)
	if err != nil {
		return nil, err
	}
	bold, err := model.NewStandard14Font(model.HelveticaBoldName)
	if err != nil {
		return nil, err
	}

	c := creator.New()
	c.SetPageMargins(50, 50, 50, 50)
	c.NewPage()

	draw := func(text string, font *model.PdfFont, size, spaceAfter float64) error {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		p := c.NewParagraph(text)
		p.SetFont(font)
		p.SetFontSize(size)
		p.SetMargins(0, 0, 0, spaceAfter)
		return c.Draw(p)
	}

	header := []pdfBlock{
		{cv.FullName, bold, 20, 4},
		{cv.Headline, regular, 12, 4},
		{joinNonEmpty(" | ", cv.Email, cv.Phone, cv.Location), regular, 10, 14},
	}
	if cv.Summary != "" {
		header = append(header,
			pdfBlock{"Summary", bold, 13, 4},
			pdfBlock{cv.Summary, regular, 10, 12},
		)
	}
	for _, b := range header {
		if err := draw(b.text, b.font, b.size, b.after); err != nil {
			return nil, fmt.Errorf("failed to draw CV header: %w", err)
		}
	}

	if len(cv.Experience) > 0 {
		if err := draw("Experience", bold, 13, 4); err != nil {
			return nil, err
		}
		for _, e := range cv.Experience {
			heading := fmt.Sprintf("%s, %s", e.Title, e.Company)
			if err := draw(heading, bold, 11, 1); err != nil {
				return nil, err
			}
			if err := draw(period(e.Start, e.End), regular, 9, 2); err != nil {
				return nil, err
			}
			if err := draw(e.Description, regular, 10, 8); err != nil {
				return nil, err
			}
		}
	}

	if len(cv.Education) > 0 {
		if err := draw("Education", bold, 13, 4); err != nil {
			return nil, err
		}
		for _, e := range cv.Education {
			if err := draw(joinNonEmpty(", ", e.Degree, e.School), bold, 11, 1); err != nil {
				return nil, err
			}
			if err := draw(period(e.Start, e.End), regular, 9, 8); err != nil {
				return nil, err
			}
		}
	}

	if len(cv.Skills) > 0 {
		if err := draw("Skills", bold, 13, 4); err != nil {
			return nil, err
		}
		if err := draw(strings.Join(cv.Skills, ", "), regular, 10, 0); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := c.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write CV PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func period(start, end string) string {
	if start == "" {
		return end
	}
	if end == "" {
		end = "present"
	}
	return start + " - " + end
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
