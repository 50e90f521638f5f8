// Package logger provides leveled diagnostic logging for the doclore CLI.
// Pipeline stages report progress through it; the --verbose flag raises
// the threshold so users can watch the build and query pipelines work.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Level is the minimum severity that gets written.
type Level int

const (
	// LevelDebug prints everything, including per-file pipeline steps.
	LevelDebug Level = iota

	// LevelInfo prints progress and warnings.
	LevelInfo

	// LevelWarn prints warnings and errors only.
	LevelWarn

	// LevelError prints errors only.
	LevelError
)

var (
	mu     sync.RWMutex
	level  Level     = LevelInfo
	output io.Writer = os.Stderr
)

// ParseLevel maps a configuration string to a Level.
// Unknown strings default to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// SetLevel sets the minimum severity written.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// SetVerbose is shorthand for lowering the threshold to debug.
func SetVerbose(v bool) {
	if v {
		SetLevel(LevelDebug)
	}
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug prints a message at debug severity.
func Debug(format string, args ...any) {
	write(LevelDebug, "[DEBUG] ", format, args...)
}

// Info prints an informational message.
func Info(format string, args ...any) {
	write(LevelInfo, "[INFO] ", format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	write(LevelWarn, "[WARN] ", format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	write(LevelError, "[ERROR] ", format, args...)
}

// Section prints a section header at debug severity.
func Section(name string) {
	write(LevelDebug, "", "\n=== %s ===", name)
}

func write(l Level, prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if l < level {
		return
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}
