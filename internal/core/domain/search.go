package domain

import (
	"strings"
	"time"
)

// snippetRunes is how much of a chunk is shown when attributing an
// answer to its sources.
const snippetRunes = 100

// ScoredChunk is a single retrieval hit.
type ScoredChunk struct {
	Chunk Chunk

	// Score is the cosine similarity between the query vector and the
	// chunk vector. Both are unit length, so this is a dot product.
	Score float64
}

// RetrievalResult is an ordered sequence of hits, best first.
// Ties keep the chunks' insertion order.
type RetrievalResult []ScoredChunk

// Sources returns the distinct source paths of the hits, in rank order.
func (r RetrievalResult) Sources() []string {
	seen := make(map[string]struct{}, len(r))
	var out []string
	for _, sc := range r {
		if _, ok := seen[sc.Chunk.Source]; ok {
			continue
		}
		seen[sc.Chunk.Source] = struct{}{}
		out = append(out, sc.Chunk.Source)
	}
	return out
}

// SourceAttribution pairs a source path with an excerpt of its
// best-ranked chunk.
type SourceAttribution struct {
	Source  string
	Snippet string
}

// Attributions returns one attribution per distinct source, in rank
// order. The snippet comes from the source's best-ranked chunk,
// whitespace collapsed and cut to a preview length.
func (r RetrievalResult) Attributions() []SourceAttribution {
	seen := make(map[string]struct{}, len(r))
	var out []SourceAttribution
	for _, sc := range r {
		if _, ok := seen[sc.Chunk.Source]; ok {
			continue
		}
		seen[sc.Chunk.Source] = struct{}{}
		out = append(out, SourceAttribution{
			Source:  sc.Chunk.Source,
			Snippet: excerpt(sc.Chunk.Content, snippetRunes),
		})
	}
	return out
}

// excerpt collapses whitespace and cuts the text to at most n runes.
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// Answer is the outcome of one question against the knowledge base.
type Answer struct {
	// Text is the generated answer. Elapsed time is carried separately,
	// never appended to the text.
	Text string

	// Sources is what the answer was grounded on.
	Sources RetrievalResult

	// Elapsed is how long generation took.
	Elapsed time.Duration
}
