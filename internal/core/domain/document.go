package domain

import (
	"path/filepath"
	"strings"
)

// Format identifies a supported source document format.
// It is resolved once from the file extension when a file is picked up,
// and drives loader dispatch from then on.
type Format int

const (
	// FormatUnknown is any extension no loader handles.
	FormatUnknown Format = iota

	// FormatPlainText covers .txt files.
	FormatPlainText

	// FormatMarkdown covers .md and .markdown files.
	FormatMarkdown

	// FormatPDF covers .pdf files.
	FormatPDF

	// FormatDocx covers .docx files.
	FormatDocx

	// FormatEPUB covers .epub e-book containers.
	FormatEPUB
)

// String returns the format name for logging and diagnostics.
func (f Format) String() string {
	switch f {
	case FormatPlainText:
		return "plaintext"
	case FormatMarkdown:
		return "markdown"
	case FormatPDF:
		return "pdf"
	case FormatDocx:
		return "docx"
	case FormatEPUB:
		return "epub"
	default:
		return "unknown"
	}
}

// DetectFormat maps a file path to its Format by extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return FormatPlainText
	case ".md", ".markdown":
		return FormatMarkdown
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDocx
	case ".epub":
		return FormatEPUB
	default:
		return FormatUnknown
	}
}

// RawDocument is the opaque bytes of a single file before any parsing.
type RawDocument struct {
	// Path is the location of the file on disk.
	Path string

	// Format is the detected format, resolved once at pickup time.
	Format Format

	// Content is the raw bytes.
	Content []byte
}

// Document is a normalized text unit produced by a loader.
// One file yields an ordered sequence of these; container formats such
// as EPUB produce one per internal component (e.g. chapter).
type Document struct {
	// Source is the path of the file this unit came from.
	Source string

	// Ordinal is the position of this unit within its file, starting at 0.
	Ordinal int

	// Title is the document or chapter title, when the format carries one.
	Title string

	// Author is the document author, when the format carries one.
	Author string

	// Content is the normalized text: markup stripped, whitespace collapsed.
	Content string
}

// Chunk is a bounded contiguous slice of a Document, the unit of
// embedding and retrieval.
type Chunk struct {
	// ID is derived from source, unit ordinal and chunk position, so
	// re-ingesting the same file produces the same IDs.
	ID string

	// Source is the path of the originating file.
	Source string

	// Position is the chunk's ordinal within its unit.
	Position int

	// Content is the chunk text.
	Content string
}

// IndexEntry pairs a chunk with its embedding vector for storage.
type IndexEntry struct {
	Chunk Chunk

	// Embedding is the L2-normalized vector for Chunk.Content.
	Embedding []float32
}
