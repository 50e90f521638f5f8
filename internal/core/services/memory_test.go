package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationMemory_AppendAndRecent(t *testing.T) {
	m := NewConversationMemory(3, nil)
	ctx := context.Background()

	m.Append(ctx, "q1", "a1")
	m.Append(ctx, "q2", "a2")

	turns := m.Recent()
	require.Len(t, turns, 2)
	assert.Equal(t, "q1", turns[0].Question)
	assert.Equal(t, "a2", turns[1].Answer)
	assert.NotEmpty(t, turns[0].ID)
	assert.False(t, turns[0].CreatedAt.IsZero())
}

func TestConversationMemory_EvictsOldestBeyondCap(t *testing.T) {
	m := NewConversationMemory(3, nil)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		m.Append(ctx, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	turns := m.Recent()
	require.Len(t, turns, 3)
	assert.Equal(t, "q3", turns[0].Question)
	assert.Equal(t, "q5", turns[2].Question)
}

func TestConversationMemory_Clear(t *testing.T) {
	m := NewConversationMemory(3, nil)
	m.Append(context.Background(), "q", "a")
	m.Clear()
	assert.Empty(t, m.Recent())
	assert.Equal(t, 0, m.Len())
}

func TestConversationMemory_SinkReceivesEveryTurn(t *testing.T) {
	sink := &mockSink{}
	m := NewConversationMemory(2, sink)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		m.Append(ctx, fmt.Sprintf("q%d", i), "a")
	}

	assert.Len(t, m.Recent(), 2, "prompt history is capped")
	assert.Len(t, sink.recorded(), 4, "audit log keeps everything")
}

func TestConversationMemory_SinkFailureDoesNotDropTurn(t *testing.T) {
	sink := &mockSink{err: assert.AnError}
	m := NewConversationMemory(3, sink)

	m.Append(context.Background(), "q", "a")
	assert.Len(t, m.Recent(), 1)
}

func TestConversationMemory_DefaultCap(t *testing.T) {
	m := NewConversationMemory(0, nil)
	ctx := context.Background()
	for i := 0; i < DefaultMaxTurns+4; i++ {
		m.Append(ctx, "q", "a")
	}
	assert.Equal(t, DefaultMaxTurns, m.Len())
}
