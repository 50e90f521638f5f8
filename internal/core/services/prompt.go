package services

import (
	"fmt"
	"strings"

	"github.com/doclore/doclore/internal/core/domain"
)

// DefaultMaxContextChars bounds the concatenated context passed to the
// model when the config names no cap.
const DefaultMaxContextChars = 8000

// FallbackAnswer is what the model is instructed to reply when the
// retrieved context does not cover the question.
const FallbackAnswer = "I cannot answer that based on the provided documents."

// promptTemplate is the fixed instruction frame. Context, history and
// question are the only variable parts.
const promptTemplate = `You are a knowledgeable assistant answering questions about a private document collection.

Read the context below carefully and answer the user's question.

Rules:
1. Base your answer on the context; quote specific passages where useful.
2. If the context does not contain the answer, reply exactly: "%s"
3. Keep a professional, friendly tone.
4. Format the answer as clear Markdown.

Context:
%s

Conversation so far:
%s

Question: %s

Answer:`

// PromptBuilder assembles the generation prompt from retrieval hits,
// conversation history and the question.
type PromptBuilder struct {
	maxContextChars int
}

// NewPromptBuilder creates a prompt builder. maxContextChars bounds
// the context section; zero or negative means the default cap.
func NewPromptBuilder(maxContextChars int) *PromptBuilder {
	if maxContextChars <= 0 {
		maxContextChars = DefaultMaxContextChars
	}
	return &PromptBuilder{maxContextChars: maxContextChars}
}

// Build renders the prompt. Hits are included best first; when the
// context budget runs out, the lowest-ranked hits are dropped whole,
// never truncated mid-chunk.
func (b *PromptBuilder) Build(question string, hits domain.RetrievalResult, history []domain.Turn) string {
	return fmt.Sprintf(promptTemplate,
		FallbackAnswer,
		b.renderContext(hits),
		renderHistory(history),
		question,
	)
}

// renderContext concatenates hit texts within the character budget.
func (b *PromptBuilder) renderContext(hits domain.RetrievalResult) string {
	if len(hits) == 0 {
		return "(no relevant documents found)"
	}

	var parts []string
	used := 0
	for _, hit := range hits {
		block := fmt.Sprintf("[%s]\n%s", hit.Chunk.Source, hit.Chunk.Content)
		if used+len(block) > b.maxContextChars && len(parts) > 0 {
			break
		}
		parts = append(parts, block)
		used += len(block)
	}
	return strings.Join(parts, "\n\n")
}

// renderHistory formats past turns as alternating User/Assistant lines.
func renderHistory(history []domain.Turn) string {
	if len(history) == 0 {
		return "(none)"
	}

	var b strings.Builder
	for i, turn := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "User: %s\nAssistant: %s", turn.Question, turn.Answer)
	}
	return b.String()
}
