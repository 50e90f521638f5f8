package pdf

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/doclore/doclore/internal/core/domain"
	"github.com/doclore/doclore/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles PDF files, producing one unit per page so retrieval
// hits can be traced back to a page.
type Loader struct{}

// New creates a new PDF loader.
func New() *Loader {
	return &Loader{}
}

// Format returns the format this loader handles.
func (l *Loader) Format() domain.Format {
	return domain.FormatPDF
}

// Load extracts per-page text. Pages with no extractable text are
// skipped; a document where every page is empty yields no units.
func (l *Loader) Load(_ context.Context, raw *domain.RawDocument) (docs []domain.Document, err error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	// the pdf package panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			docs, err = nil, fmt.Errorf("%s: malformed pdf: %v", raw.Path, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", raw.Path, err)
	}

	title := titleFromPath(raw.Path)

	ordinal := 0
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		docs = append(docs, domain.Document{
			Source:  raw.Path,
			Ordinal: ordinal,
			Title:   fmt.Sprintf("%s (page %d)", title, i),
			Content: text,
		})
		ordinal++
	}

	return docs, nil
}

func titleFromPath(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}
