package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doclore/doclore/internal/config"
	"github.com/doclore/doclore/internal/core/domain"
	"github.com/doclore/doclore/internal/core/ports/driven"
)

// fakeSession stands in for the wired knowledge session.
type fakeSession struct {
	buildSize  int
	buildErr   error
	gotDir     string
	gotRebuild bool

	answer   domain.Answer
	queryErr error

	fragments []string
	streamErr error

	cleared bool
	watched bool
}

func (f *fakeSession) BuildIndex(_ context.Context, sourceDir string, rebuild bool) (int, error) {
	f.gotDir = sourceDir
	f.gotRebuild = rebuild
	return f.buildSize, f.buildErr
}

func (f *fakeSession) Query(_ context.Context, _ string) (domain.Answer, error) {
	return f.answer, f.queryErr
}

func (f *fakeSession) QueryStream(_ context.Context, _ string) (domain.RetrievalResult, <-chan driven.StreamDelta, error) {
	if f.streamErr != nil {
		return nil, nil, f.streamErr
	}
	out := make(chan driven.StreamDelta, len(f.fragments))
	for _, frag := range f.fragments {
		out <- driven.StreamDelta{Text: frag}
	}
	close(out)
	return f.answer.Sources, out, nil
}

func (f *fakeSession) ClearMemory() { f.cleared = true }

func (f *fakeSession) Watch(_ context.Context, _ string) error {
	f.watched = true
	return nil
}

func hitsFor(sources ...string) domain.RetrievalResult {
	hits := make(domain.RetrievalResult, 0, len(sources))
	for _, src := range sources {
		hits = append(hits, domain.ScoredChunk{
			Chunk: domain.Chunk{Source: src, Content: "content"},
			Score: 0.9,
		})
	}
	return hits
}

// setupTestSession injects a fake session and a default config so
// commands never touch the filesystem or the network.
func setupTestSession(fake *fakeSession) func() {
	oldSession := session
	oldWatcher := sessionWatcher
	oldCfg := cfg

	session = fake
	sessionWatcher = fake
	cfg = config.Default()

	return func() {
		session = oldSession
		sessionWatcher = oldWatcher
		cfg = oldCfg
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		buildRebuild = false
		buildWatch = false
	}
}

func execute(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	return buf, rootCmd.Execute()
}

func TestVersionCmd(t *testing.T) {
	cleanup := setupTestSession(&fakeSession{})
	defer cleanup()

	buf, err := execute(t, "version")

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "doclore version dev")
}

func TestBuildCmd_RequiresSourceDir(t *testing.T) {
	cleanup := setupTestSession(&fakeSession{})
	defer cleanup()

	_, err := execute(t, "build")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestBuildCmd_ReportsChunkCount(t *testing.T) {
	fake := &fakeSession{buildSize: 42}
	cleanup := setupTestSession(fake)
	defer cleanup()

	buf, err := execute(t, "build", "./docs")

	require.NoError(t, err)
	assert.Equal(t, "./docs", fake.gotDir)
	assert.False(t, fake.gotRebuild)
	assert.Contains(t, buf.String(), "42 chunks")
}

func TestBuildCmd_RebuildFlag(t *testing.T) {
	fake := &fakeSession{buildSize: 7}
	cleanup := setupTestSession(fake)
	defer cleanup()

	_, err := execute(t, "build", "--rebuild", "./docs")

	require.NoError(t, err)
	assert.True(t, fake.gotRebuild)
}

func TestBuildCmd_BuildErrorPropagates(t *testing.T) {
	fake := &fakeSession{buildErr: domain.ErrInvalidInput}
	cleanup := setupTestSession(fake)
	defer cleanup()

	_, err := execute(t, "build", "./docs")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBuildCmd_WatchFlag(t *testing.T) {
	fake := &fakeSession{buildSize: 3}
	cleanup := setupTestSession(fake)
	defer cleanup()

	buf, err := execute(t, "build", "--watch", "./docs")

	require.NoError(t, err)
	assert.True(t, fake.watched)
	assert.Contains(t, buf.String(), "Watching")
}

func TestQueryCmd_PrintsAnswerAndSources(t *testing.T) {
	fake := &fakeSession{answer: domain.Answer{
		Text:    "The sky is blue.",
		Sources: hitsFor("sky.txt", "weather.md"),
	}}
	cleanup := setupTestSession(fake)
	defer cleanup()

	buf, err := execute(t, "query", "what color is the sky?")

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "The sky is blue.")
	assert.Contains(t, out, "sky.txt: content", "sources carry a snippet")
	assert.Contains(t, out, "weather.md")
	assert.Contains(t, out, "Answered in")
}

func TestQueryCmd_IndexUnavailable(t *testing.T) {
	fake := &fakeSession{queryErr: domain.ErrIndexUnavailable}
	cleanup := setupTestSession(fake)
	defer cleanup()

	_, err := execute(t, "query", "anything")

	assert.ErrorIs(t, err, domain.ErrIndexUnavailable)
}

func TestChatCmd_PlainLoop(t *testing.T) {
	fake := &fakeSession{
		answer:    domain.Answer{Sources: hitsFor("sky.txt")},
		fragments: []string{"The sky ", "is blue."},
	}
	cleanup := setupTestSession(fake)
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("what color is the sky?\nexit\n"))
	buf, err := execute(t, "chat")

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "The sky is blue.")
	assert.Contains(t, out, "Sources:")
	assert.Contains(t, out, "sky.txt: content", "sources carry a snippet")
	assert.Contains(t, out, "Answered in")
}

func TestChatCmd_ClearCommand(t *testing.T) {
	fake := &fakeSession{fragments: []string{"ok"}}
	cleanup := setupTestSession(fake)
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("clear\nquit\n"))
	buf, err := execute(t, "chat")

	require.NoError(t, err)
	assert.True(t, fake.cleared)
	assert.Contains(t, buf.String(), "Conversation cleared.")
}

func TestChatCmd_QueryFailureKeepsLoopAlive(t *testing.T) {
	fake := &fakeSession{streamErr: domain.ErrIndexUnavailable}
	cleanup := setupTestSession(fake)
	defer cleanup()

	rootCmd.SetIn(strings.NewReader("first question\nexit\n"))
	buf, err := execute(t, "chat")

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "error:")
}

func TestChatCmd_EOFEndsLoop(t *testing.T) {
	cleanup := setupTestSession(&fakeSession{})
	defer cleanup()

	rootCmd.SetIn(strings.NewReader(""))
	_, err := execute(t, "chat")

	assert.NoError(t, err)
}
