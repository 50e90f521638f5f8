package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func resetLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelInfo)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel(""))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestDebugSuppressedAtInfo(t *testing.T) {
	buf := resetLogger(t)

	Debug("hidden %d", 1)
	assert.Empty(t, buf.String())

	Info("visible")
	assert.Contains(t, buf.String(), "[INFO] visible")
}

func TestVerboseEnablesDebug(t *testing.T) {
	buf := resetLogger(t)

	SetVerbose(true)
	Debug("now shown")
	assert.Contains(t, buf.String(), "[DEBUG] now shown")
}

func TestErrorAlwaysShown(t *testing.T) {
	buf := resetLogger(t)

	SetLevel(LevelError)
	Warn("hidden")
	Error("boom: %v", "disk full")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[ERROR] boom: disk full")
}
