package plaintext

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/doclore/doclore/internal/core/domain"
	"github.com/doclore/doclore/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles plain text files.
type Loader struct{}

// New creates a new plain text loader.
func New() *Loader {
	return &Loader{}
}

// Format returns the format this loader handles.
func (l *Loader) Format() domain.Format {
	return domain.FormatPlainText
}

// Load converts the raw bytes into a single normalized unit.
func (l *Loader) Load(_ context.Context, raw *domain.RawDocument) ([]domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := strings.TrimSpace(string(raw.Content))
	if content == "" {
		return nil, nil
	}

	return []domain.Document{{
		Source:  raw.Path,
		Ordinal: 0,
		Title:   titleFromPath(raw.Path),
		Content: content,
	}}, nil
}

// titleFromPath derives a human-readable title from the filename.
func titleFromPath(path string) string {
	name := filepath.Base(path)
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}
