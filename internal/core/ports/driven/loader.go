package driven

import (
	"context"

	"github.com/doclore/doclore/internal/core/domain"
)

// Loader turns the raw bytes of one file into normalized text units.
// Each loader handles exactly one Format. Container formats return one
// unit per internal component; empty or non-extractable components are
// skipped, not emitted as empty units.
type Loader interface {
	// Format returns the single format this loader handles.
	Format() domain.Format

	// Load parses raw into zero or more normalized units. A parse
	// failure is returned as an error; the caller decides whether to
	// skip the file or abort.
	Load(ctx context.Context, raw *domain.RawDocument) ([]domain.Document, error)
}
