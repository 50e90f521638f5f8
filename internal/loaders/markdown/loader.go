package markdown

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/doclore/doclore/internal/core/domain"
	"github.com/doclore/doclore/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles Markdown files. Formatting is stripped so the indexed
// text matches what a reader would actually see.
type Loader struct{}

// New creates a new Markdown loader.
func New() *Loader {
	return &Loader{}
}

// Format returns the format this loader handles.
func (l *Loader) Format() domain.Format {
	return domain.FormatMarkdown
}

// Load converts a markdown file into a single normalized unit.
// The title comes from the first H1 heading when present.
func (l *Loader) Load(_ context.Context, raw *domain.RawDocument) ([]domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	text := string(raw.Content)
	title := extractTitle(text, raw.Path)

	content := strings.TrimSpace(stripMarkdown(text))
	if content == "" {
		return nil, nil
	}

	return []domain.Document{{
		Source:  raw.Path,
		Ordinal: 0,
		Title:   title,
		Content: content,
	}}, nil
}

// extractTitle takes the first H1 heading, falling back to the filename.
func extractTitle(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}

	name := filepath.Base(path)
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}

var (
	codeBlockRe  = regexp.MustCompile("(?s)```[^`]*```")
	inlineCodeRe = regexp.MustCompile("`([^`]+)`")
	imageRe      = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headingRe    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasisRe   = regexp.MustCompile(`(\*{1,3}|_{1,3})([^*_]+)(\*{1,3}|_{1,3})`)
	listRe       = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	blockquoteRe = regexp.MustCompile(`(?m)^>\s?`)
	hruleRe      = regexp.MustCompile(`(?m)^(\s*[-*_]){3,}\s*$`)
)

// stripMarkdown removes common markdown formatting for plain text
// content. Simplified, but it covers what shows up in real documents.
func stripMarkdown(content string) string {
	content = codeBlockRe.ReplaceAllString(content, "")
	content = imageRe.ReplaceAllString(content, "")
	content = linkRe.ReplaceAllString(content, "$1")
	content = inlineCodeRe.ReplaceAllString(content, "$1")
	content = headingRe.ReplaceAllString(content, "")
	content = emphasisRe.ReplaceAllString(content, "$2")
	content = hruleRe.ReplaceAllString(content, "")
	content = listRe.ReplaceAllString(content, "")
	content = blockquoteRe.ReplaceAllString(content, "")
	return content
}
