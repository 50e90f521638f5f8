// Package splitter provides boundary-preferring text chunking.
//
// Text is cut into chunks of at most a configured size. Break points are
// chosen from an ordered separator list (paragraph break before sentence
// break before word break before raw character), and consecutive chunks
// share a configured number of tail characters so retrieval context does
// not lose sentences straddling a boundary.
package splitter

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/doclore/doclore/internal/core/domain"
)

// DefaultChunkSize is the default maximum chunk length in characters.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of shared tail characters.
const DefaultChunkOverlap = 200

// DefaultSeparators is the default break-point priority order. The empty
// string means a raw character split and makes every span divisible.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter cuts normalized documents into overlapping chunks.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the maximum chunk length in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the tail overlap between consecutive chunks.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// WithSeparators sets the break-point priority order.
func WithSeparators(seps []string) Option {
	return func(s *Splitter) {
		if len(seps) > 0 {
			s.separators = seps
		}
	}
}

// New creates a splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: DefaultSeparators,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}
	return s
}

// Split cuts one normalized unit into chunks. The same unit and the same
// configuration always produce the same chunk sequence, IDs included.
func (s *Splitter) Split(doc domain.Document) []domain.Chunk {
	text := doc.Content
	if strings.TrimSpace(text) == "" {
		return nil
	}

	breaks := s.breakPoints(text)

	var chunks []domain.Chunk
	start := 0
	position := 0
	for start < len(text) {
		end := s.cut(text, breaks, start)
		if end <= start {
			// degenerate chunk sizes still have to emit something
			_, size := utf8.DecodeRuneInString(text[start:])
			end = start + size
		}
		content := text[start:end]
		chunks = append(chunks, domain.Chunk{
			ID:       chunkID(doc.Source, doc.Ordinal, position),
			Source:   doc.Source,
			Position: position,
			Content:  content,
		})
		position++
		if end >= len(text) {
			break
		}
		next := overlapStart(text, end, s.overlap)
		if next <= start {
			// an emitted chunk shorter than the overlap must still advance
			next = end
		}
		start = next
	}
	return chunks
}

// SplitAll cuts a sequence of units, preserving unit order.
// Overlap never crosses unit boundaries.
func (s *Splitter) SplitAll(docs []domain.Document) []domain.Chunk {
	var all []domain.Chunk
	for _, doc := range docs {
		all = append(all, s.Split(doc)...)
	}
	return all
}

// rankedBreaks holds, per separator priority rank, the sorted end
// positions of every occurrence in the text. A rank of -1 marks the raw
// character separator.
type rankedBreaks struct {
	positions [][]int
	rawRank   int
}

func (s *Splitter) breakPoints(text string) rankedBreaks {
	rb := rankedBreaks{positions: make([][]int, len(s.separators)), rawRank: -1}
	for rank, sep := range s.separators {
		if sep == "" {
			rb.rawRank = rank
			continue
		}
		var pos []int
		for i := 0; ; {
			j := strings.Index(text[i:], sep)
			if j < 0 {
				break
			}
			// break after the separator so it stays with the preceding chunk
			pos = append(pos, i+j+len(sep))
			i += j + len(sep)
		}
		rb.positions[rank] = pos
	}
	return rb
}

// cut picks the end of the chunk starting at start: the rightmost break
// of the highest-priority separator that keeps the chunk within size.
// When no separator breaks inside the window, the span is indivisible
// and is emitted whole rather than truncated.
func (s *Splitter) cut(text string, breaks rankedBreaks, start int) int {
	if len(text)-start <= s.chunkSize {
		return len(text)
	}
	limit := start + s.chunkSize

	for rank, positions := range breaks.positions {
		if rank == breaks.rawRank {
			return runeAligned(text, limit)
		}
		if end, ok := lastWithin(positions, start, limit); ok {
			return end
		}
	}

	// indivisible span: extend to the nearest break past the limit
	end := len(text)
	for _, positions := range breaks.positions {
		i := sort.SearchInts(positions, start+1)
		if i < len(positions) && positions[i] < end {
			end = positions[i]
		}
	}
	return end
}

// lastWithin returns the largest position p with start < p <= limit.
func lastWithin(positions []int, start, limit int) (int, bool) {
	i := sort.SearchInts(positions, limit+1) - 1
	if i >= 0 && positions[i] > start {
		return positions[i], true
	}
	return 0, false
}

// overlapStart returns the byte offset overlap runes before end.
// Counting runes rather than bytes keeps the overlap a character count
// and never lands the next chunk mid-rune in multibyte text.
func overlapStart(text string, end, overlap int) int {
	start := end
	for i := 0; i < overlap && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	return start
}

// runeAligned backs a byte offset off to the nearest rune start so a raw
// split never cuts a multi-byte character in half.
func runeAligned(text string, end int) int {
	for end > 0 && end < len(text) && !utf8.RuneStart(text[end]) {
		end--
	}
	return end
}

// chunkID derives a stable identifier from the chunk's origin, so
// re-ingesting the same file overwrites instead of duplicating.
func chunkID(source string, ordinal, position int) string {
	h := sha1.Sum([]byte(fmt.Sprintf("%s#%d#%d", source, ordinal, position)))
	return hex.EncodeToString(h[:])
}
