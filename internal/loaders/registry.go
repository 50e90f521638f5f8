package loaders

import (
	"context"
	"fmt"

	"github.com/doclore/doclore/internal/core/domain"
	"github.com/doclore/doclore/internal/core/ports/driven"
	"github.com/doclore/doclore/internal/loaders/docx"
	"github.com/doclore/doclore/internal/loaders/epub"
	"github.com/doclore/doclore/internal/loaders/markdown"
	"github.com/doclore/doclore/internal/loaders/pdf"
	"github.com/doclore/doclore/internal/loaders/plaintext"
)

// Registry maps document formats to their loaders.
type Registry struct {
	loaders map[domain.Format]driven.Loader
}

// NewRegistry creates an empty loader registry.
func NewRegistry() *Registry {
	return &Registry{
		loaders: make(map[domain.Format]driven.Loader),
	}
}

// Defaults returns a registry with all built-in format loaders registered.
func Defaults() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(pdf.New())
	r.Register(docx.New())
	r.Register(epub.New())
	return r
}

// Register adds a loader, keyed by the format it reports.
// Registering a second loader for the same format replaces the first.
func (r *Registry) Register(l driven.Loader) {
	r.loaders[l.Format()] = l
}

// Has returns true if a loader is registered for the format.
func (r *Registry) Has(format domain.Format) bool {
	_, ok := r.loaders[format]
	return ok
}

// Load dispatches the raw document to the loader for its format.
func (r *Registry) Load(ctx context.Context, raw *domain.RawDocument) ([]domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	l, ok := r.loaders[raw.Format]
	if !ok {
		return nil, fmt.Errorf("%s: %w", raw.Path, domain.ErrUnsupportedFormat)
	}
	return l.Load(ctx, raw)
}
