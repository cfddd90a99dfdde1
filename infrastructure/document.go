package infrastructure

import (
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/sirupsen/logrus"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"job-board/domain"
)

// MaxDocumentSize bounds uploaded CV files.
const MaxDocumentSize = 5 << 20

// ConfigureUnidoc installs the metered license key used by the PDF code.
func ConfigureUnidoc(key string) error {
	if key == "" {
		return nil
	}
	if err := license.SetMeteredKey(key); err != nil {
		return fmt.Errorf("failed to set unidoc license: %w", err)
	}
	return nil
}

// DocumentExtractor pulls plain text out of uploaded CV files.
type DocumentExtractor struct {
	log *logrus.Entry
}

func NewDocumentExtractor(log *logrus.Entry) *DocumentExtractor {
	return &DocumentExtractor{log: log}
}

// ExtractText dispatches on the file extension: .pdf, .docx or .txt.
func (d *DocumentExtractor) ExtractText(filename string, data []byte) (string, error) {
	if len(data) > MaxDocumentSize {
		return "", domain.Invalid("file", "is larger than 5 MiB")
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return strings.TrimSpace(string(data)), nil
	case ".pdf":
		return d.extractPDF(data)
	case ".docx":
		return d.extractDOCX(data)
	default:
		return "", domain.Invalid("file", "must be a .pdf, .docx or .txt file")
	}
}

func (d *DocumentExtractor) extractPDF(data []byte) (string, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("failed to get page count: %w", err)
	}
	if numPages == 0 {
		return "", domain.Invalid("file", "PDF has no pages")
	}

	var b strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			d.log.WithError(err).WithField("page", i).Warn("skipping unreadable PDF page")
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			d.log.WithError(err).WithField("page", i).Warn("skipping PDF page")
			continue
		}
		pageText, err := ex.ExtractText()
		if err != nil {
			d.log.WithError(err).WithField("page", i).Warn("failed to extract PDF page text")
			continue
		}
		if pageText = strings.TrimSpace(pageText); pageText != "" {
			b.WriteString(pageText)
			b.WriteString("\n\n")
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", domain.Invalid("file", "no text could be extracted from the PDF")
	}
	return text, nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	docxBreak        = regexp.MustCompile(`<w:(br|tab)[^>]*/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
	blankLines       = regexp.MustCompile(`\n{3,}`)
)

func (d *DocumentExtractor) extractDOCX(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read DOCX: %w", err)
	}
	defer r.Close()

	return docxText(r.Editable().GetContent()), nil
}

// docxText flattens WordprocessingML into plain text, one line per paragraph.
func docxText(content string) string {
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = docxBreak.ReplaceAllString(content, " ")
	content = xmlTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = blankLines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
