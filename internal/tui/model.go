// Package tui implements the interactive chat surface with Bubble Tea.
// Answers stream into the transcript as the model generates them.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/doclore/doclore/internal/core/domain"
	"github.com/doclore/doclore/internal/core/ports/driven"
	"github.com/doclore/doclore/internal/core/ports/driving"
)

// Messages produced by the streaming pipeline.
type (
	// streamStartedMsg carries the resolved sources and the live delta
	// channel for one question.
	streamStartedMsg struct {
		sources domain.RetrievalResult
		deltas  <-chan driven.StreamDelta
	}

	// deltaMsg is one fragment pulled off the stream.
	deltaMsg struct {
		delta driven.StreamDelta
	}

	// streamClosedMsg signals a cleanly finished stream.
	streamClosedMsg struct{}

	// queryFailedMsg reports a failure before or during streaming.
	queryFailedMsg struct {
		err error
	}
)

// Model is the Bubble Tea model for the chat session.
type Model struct {
	session driving.KnowledgeSession

	input    textinput.Model
	viewport viewport.Model

	// answer accumulates the in-flight stream. A plain string: Bubble
	// Tea copies the model on every Update, and a copied non-zero
	// strings.Builder panics on the next write.
	transcript []string
	answer     string
	question   string
	sources    domain.RetrievalResult
	deltas     <-chan driven.StreamDelta
	cancel     context.CancelFunc
	started    time.Time

	streaming bool
	status    string
	ready     bool
}

// New creates a chat model over the given session.
func New(session driving.KnowledgeSession) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question ('clear' resets memory, 'exit' quits)"
	ti.Focus()
	ti.CharLimit = 0

	return Model{
		session:  session,
		input:    ti,
		viewport: viewport.New(0, 0),
		status:   "Ready.",
	}
}

// Init starts the text input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and stream events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		reserved := 5 // header, input frame, status, spacers
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			m.abandonStream()
			return m, tea.Quit
		}
		if msg.String() == "enter" && !m.streaming {
			return m.submit()
		}

	case streamStartedMsg:
		m.sources = msg.sources
		m.deltas = msg.deltas
		m.answer = ""
		m.transcript = append(m.transcript, youStyle.Render("You: ")+m.question)
		m.refreshViewport()
		return m, waitDelta(msg.deltas)

	case deltaMsg:
		if msg.delta.Err != nil {
			m.abandonStream()
			m.streaming = false
			m.status = errorStyle.Render("Error: " + msg.delta.Err.Error())
			m.answer = ""
			m.refreshViewport()
			return m, nil
		}
		m.answer += msg.delta.Text
		m.refreshViewport()
		return m, waitDelta(m.deltas)

	case streamClosedMsg:
		m.finishTurn()
		return m, nil

	case queryFailedMsg:
		m.abandonStream()
		m.streaming = false
		m.status = errorStyle.Render("Error: " + msg.err.Error())
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit interprets the input line: chat commands or a question.
func (m Model) submit() (tea.Model, tea.Cmd) {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return m, nil
	}
	m.input.Reset()

	switch strings.ToLower(line) {
	case "exit", "quit":
		m.abandonStream()
		return m, tea.Quit
	case "clear":
		m.session.ClearMemory()
		m.transcript = nil
		m.answer = ""
		m.status = "Conversation memory cleared."
		m.refreshViewport()
		return m, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.question = line
	m.streaming = true
	m.started = time.Now()
	m.status = "Thinking..."
	return m, startQuery(ctx, m.session, line)
}

// abandonStream cancels the in-flight query, if any, so the generation
// and the forwarding goroutine stop instead of blocking forever.
func (m *Model) abandonStream() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// finishTurn moves the streamed answer into the transcript with its
// source attribution and elapsed time.
func (m *Model) finishTurn() {
	elapsed := time.Since(m.started).Round(100 * time.Millisecond)

	block := assistantStyle.Render("Assistant: ") + m.answer
	for _, att := range m.sources.Attributions() {
		line := "Source: " + att.Source
		if att.Snippet != "" {
			line += ": " + att.Snippet
		}
		block += "\n" + sourceStyle.Render(line)
	}
	m.transcript = append(m.transcript, block)

	m.abandonStream()
	m.answer = ""
	m.sources = nil
	m.streaming = false
	m.status = fmt.Sprintf("Answered in %s.", elapsed)
	m.refreshViewport()
}

// refreshViewport re-renders the transcript, keeping the tail visible.
func (m *Model) refreshViewport() {
	content := strings.Join(m.transcript, "\n\n")
	if m.streaming && m.answer != "" {
		if content != "" {
			content += "\n\n"
		}
		content += assistantStyle.Render("Assistant: ") + m.answer
	}
	if content == "" {
		content = "Ask anything about your documents."
	}
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("doclore chat")
	return header + "\n" +
		m.viewport.View() + "\n" +
		inputBoxStyle.Render(m.input.View()) + "\n" +
		statusStyle.Render(m.status)
}

// startQuery resolves sources and opens the delta stream. The ctx is
// cancelled when the user abandons the stream.
func startQuery(ctx context.Context, session driving.KnowledgeSession, question string) tea.Cmd {
	return func() tea.Msg {
		sources, deltas, err := session.QueryStream(ctx, question)
		if err != nil {
			return queryFailedMsg{err: err}
		}
		return streamStartedMsg{sources: sources, deltas: deltas}
	}
}

// waitDelta pulls the next fragment off the stream.
func waitDelta(deltas <-chan driven.StreamDelta) tea.Cmd {
	return func() tea.Msg {
		d, ok := <-deltas
		if !ok {
			return streamClosedMsg{}
		}
		return deltaMsg{delta: d}
	}
}
