package epub

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/doclore/doclore/internal/core/domain"
	"github.com/doclore/doclore/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.Loader = (*Loader)(nil)

// Loader handles EPUB e-book containers. Each spine component (chapter)
// becomes its own unit, in reading order.
type Loader struct{}

// New creates a new EPUB loader.
func New() *Loader {
	return &Loader{}
}

// Format returns the format this loader handles.
func (l *Loader) Format() domain.Format {
	return domain.FormatEPUB
}

// Load walks the container: META-INF/container.xml names the OPF
// package file, whose spine lists the content documents in reading
// order. Components with no extractable text are skipped.
func (l *Loader) Load(_ context.Context, raw *domain.RawDocument) ([]domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := zip.NewReader(bytes.NewReader(raw.Content), int64(len(raw.Content)))
	if err != nil {
		return nil, fmt.Errorf("%s: not an epub archive: %w", raw.Path, err)
	}

	opfPath, err := findPackagePath(reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", raw.Path, err)
	}

	pkg, err := parsePackage(reader, opfPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", raw.Path, err)
	}

	// spine hrefs are relative to the OPF file's directory
	base := path.Dir(opfPath)

	var docs []domain.Document
	ordinal := 0
	for _, href := range pkg.spineHrefs() {
		data, err := readArchiveFile(reader, resolveHref(base, href))
		if err != nil || data == nil {
			continue
		}
		text := stripHTML(string(data))
		if text == "" {
			continue
		}
		docs = append(docs, domain.Document{
			Source:  raw.Path,
			Ordinal: ordinal,
			Title:   chapterTitle(pkg.Metadata.Title, string(data), ordinal),
			Author:  strings.TrimSpace(pkg.Metadata.Creator),
			Content: text,
		})
		ordinal++
	}

	return docs, nil
}

// containerXML mirrors META-INF/container.xml.
type containerXML struct {
	Rootfiles []struct {
		FullPath string `xml:"full-path,attr"`
	} `xml:"rootfiles>rootfile"`
}

// findPackagePath reads container.xml and returns the OPF path.
func findPackagePath(reader *zip.Reader) (string, error) {
	data, err := readArchiveFile(reader, "META-INF/container.xml")
	if err != nil || data == nil {
		return "", domain.ErrInvalidInput
	}

	var c containerXML
	if err := xml.Unmarshal(data, &c); err != nil {
		return "", domain.ErrInvalidInput
	}
	if len(c.Rootfiles) == 0 || c.Rootfiles[0].FullPath == "" {
		return "", domain.ErrInvalidInput
	}
	return c.Rootfiles[0].FullPath, nil
}

// packageXML mirrors the OPF parts we read: metadata, manifest, spine.
type packageXML struct {
	Metadata struct {
		Title   string `xml:"title"`
		Creator string `xml:"creator"`
	} `xml:"metadata"`
	Manifest struct {
		Items []struct {
			ID   string `xml:"id,attr"`
			Href string `xml:"href,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		ItemRefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

func parsePackage(reader *zip.Reader, opfPath string) (*packageXML, error) {
	data, err := readArchiveFile(reader, opfPath)
	if err != nil || data == nil {
		return nil, domain.ErrInvalidInput
	}

	var pkg packageXML
	if err := xml.Unmarshal(data, &pkg); err != nil {
		return nil, domain.ErrInvalidInput
	}
	return &pkg, nil
}

// spineHrefs resolves the spine's idrefs to manifest hrefs, keeping
// reading order. Unresolvable idrefs are skipped.
func (p *packageXML) spineHrefs() []string {
	byID := make(map[string]string, len(p.Manifest.Items))
	for _, item := range p.Manifest.Items {
		byID[item.ID] = item.Href
	}

	var hrefs []string
	for _, ref := range p.Spine.ItemRefs {
		if href, ok := byID[ref.IDRef]; ok && href != "" {
			hrefs = append(hrefs, href)
		}
	}
	return hrefs
}

// resolveHref joins a spine href onto the OPF directory.
func resolveHref(base, href string) string {
	if base == "." || base == "" {
		return href
	}
	return path.Join(base, href)
}

// chapterTitle prefers the chapter's own <title>, then the book title
// with a component index.
func chapterTitle(bookTitle, chapterHTML string, ordinal int) string {
	if m := titleTag.FindStringSubmatch(chapterHTML); len(m) > 1 {
		if t := strings.TrimSpace(html.UnescapeString(m[1])); t != "" {
			return t
		}
	}
	bookTitle = strings.TrimSpace(bookTitle)
	if bookTitle == "" {
		return fmt.Sprintf("chapter %d", ordinal+1)
	}
	return fmt.Sprintf("%s (%d)", bookTitle, ordinal+1)
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

var (
	titleTag      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptTag     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	headTag       = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	htmlComments  = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockClose    = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|blockquote|pre|table|section)>`)
	blockOpen     = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section)[^>]*>`)
	brTags        = regexp.MustCompile(`(?i)<(br|hr)\s*/?>`)
	allTags       = regexp.MustCompile(`<[^>]+>`)
	multiSpaces   = regexp.MustCompile(`[ \t]+`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// stripHTML removes markup from a content document, keeping block
// boundaries as newlines.
func stripHTML(content string) string {
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")

	content = blockOpen.ReplaceAllString(content, "\n")
	content = blockClose.ReplaceAllString(content, "\n")
	content = brTags.ReplaceAllString(content, "\n")
	content = allTags.ReplaceAllString(content, "")

	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")
	content = multiNewlines.ReplaceAllString(content, "\n\n")

	lines := strings.Split(content, "\n")
	var kept []string
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
