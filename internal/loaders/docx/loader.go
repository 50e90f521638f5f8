package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/doclore/doclore/internal/core/domain"
	"github.com/doclore/doclore/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles DOCX files.
type Loader struct{}

// New creates a new DOCX loader.
func New() *Loader {
	return &Loader{}
}

// Format returns the format this loader handles.
func (l *Loader) Format() domain.Format {
	return domain.FormatDocx
}

// Load extracts the paragraph text of word/document.xml as one unit.
func (l *Loader) Load(_ context.Context, raw *domain.RawDocument) ([]domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%s: not a docx archive: %w", raw.Path, err)
	}

	content, err := extractDocumentText(reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", raw.Path, err)
	}
	if content == "" {
		return nil, nil
	}

	title, author := extractCoreProperties(reader)
	if title == "" {
		title = titleFromPath(raw.Path)
	}

	return []domain.Document{{
		Source:  raw.Path,
		Ordinal: 0,
		Title:   title,
		Author:  author,
		Content: content,
	}}, nil
}

// documentXML mirrors the parts of word/document.xml we read.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// extractDocumentText pulls paragraph text out of word/document.xml.
func extractDocumentText(reader *zip.Reader) (string, error) {
	data, err := readArchiveFile(reader, "word/document.xml")
	if err != nil {
		return "", err
	}
	if data == nil {
		return "", domain.ErrInvalidInput
	}

	var doc documentXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", domain.ErrInvalidInput
	}

	var b strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			b.WriteString("\n")
		}
		for _, r := range para.Runs {
			for _, t := range r.Text {
				b.WriteString(t.Content)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}

// coreXML mirrors the Dublin Core fields of docProps/core.xml.
type coreXML struct {
	Title   string `xml:"title"`
	Creator string `xml:"creator"`
}

// extractCoreProperties reads title and author from docProps/core.xml.
// Both are best effort; a missing or broken part yields empty strings.
func extractCoreProperties(reader *zip.Reader) (title, author string) {
	data, err := readArchiveFile(reader, "docProps/core.xml")
	if err != nil || data == nil {
		return "", ""
	}

	var core coreXML
	if err := xml.Unmarshal(data, &core); err != nil {
		return "", ""
	}
	return strings.TrimSpace(core.Title), strings.TrimSpace(core.Creator)
}

// readArchiveFile returns the named file's bytes, or nil when absent.
func readArchiveFile(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, domain.ErrInvalidInput
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, domain.ErrInvalidInput
		}
		return data, nil
	}
	return nil, nil
}

func titleFromPath(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}
