package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doclore/doclore/internal/core/domain"
	"github.com/doclore/doclore/internal/core/ports/driven"
	"github.com/doclore/doclore/internal/logger"
)

// DefaultMaxTurns bounds the prompt history when the config names no cap.
const DefaultMaxTurns = 6

// ConversationMemory is the bounded in-process history of completed
// turns. Prompts see at most maxTurns recent turns; older ones fall
// off the front. An optional sink receives every turn for auditing,
// unbounded.
type ConversationMemory struct {
	mu       sync.Mutex
	turns    []domain.Turn
	maxTurns int
	sink     driven.TurnSink
}

// NewConversationMemory creates a memory keeping at most maxTurns
// turns. sink may be nil.
func NewConversationMemory(maxTurns int, sink driven.TurnSink) *ConversationMemory {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &ConversationMemory{
		maxTurns: maxTurns,
		sink:     sink,
	}
}

// Append records a completed exchange. The audit sink is best effort:
// a sink failure is logged and never fails the turn.
func (m *ConversationMemory) Append(ctx context.Context, question, answer string) {
	turn := domain.Turn{
		ID:        uuid.New().String(),
		Question:  question,
		Answer:    answer,
		CreatedAt: time.Now().UTC(),
	}

	m.mu.Lock()
	m.turns = append(m.turns, turn)
	if len(m.turns) > m.maxTurns {
		m.turns = m.turns[len(m.turns)-m.maxTurns:]
	}
	m.mu.Unlock()

	if m.sink != nil {
		if err := m.sink.RecordTurn(ctx, turn); err != nil {
			logger.Warn("failed to record turn %s in audit log: %v", turn.ID, err)
		}
	}
}

// Recent returns a copy of the kept turns, oldest first.
func (m *ConversationMemory) Recent() []domain.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Turn, len(m.turns))
	copy(out, m.turns)
	return out
}

// Len returns how many turns are currently kept.
func (m *ConversationMemory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.turns)
}

// Clear forgets the history. The audit log is unaffected.
func (m *ConversationMemory) Clear() {
	m.mu.Lock()
	m.turns = nil
	m.mu.Unlock()
}
