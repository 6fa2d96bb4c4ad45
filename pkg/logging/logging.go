// Package logging provides the structured, subsystem-tagged logging used by the
// components of kest that log (retry engine, scenario runtime, actions, kubectl
// adapter). It is a thin wrapper over log/slog: kest never changes what is
// logged, only how it is labeled and filtered.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Level defines the severity of a log entry.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String makes Level satisfy fmt.Stringer.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var defaultLogger *slog.Logger

func init() {
	// Quiet by default: a scenario run that never calls Init still must not
	// print anything, since tests typically run under `go test` output capture.
	defaultLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Init configures the package-wide logger. Call once, typically from the host
// test runner's setup, before any scenario runs.
func Init(level Level, output io.Writer) {
	defaultLogger = slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{
		Level: level.slogLevel(),
	}))
}

// Discard silences all logging. Equivalent to the zero-value state.
func Discard() {
	defaultLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func log(level Level, subsystem string, err error, messageFmt string, args ...interface{}) {
	if !defaultLogger.Enabled(context.Background(), level.slogLevel()) {
		return
	}

	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}

	attrs := []slog.Attr{slog.String("subsystem", subsystem)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	defaultLogger.LogAttrs(context.Background(), level.slogLevel(), msg, attrs...)
}

// Debug logs a debug-level message tagged with subsystem.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	log(LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an info-level message tagged with subsystem.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	log(LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warn-level message tagged with subsystem.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	log(LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error-level message tagged with subsystem, carrying the
// triggering error as a structured attribute.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	log(LevelError, subsystem, err, messageFmt, args...)
}

// fallbackOutput is where Fallback writes. Swappable in tests, the same way
// Init/Discard swap defaultLogger.
var fallbackOutput io.Writer = os.Stderr

// Fallback writes directly to stderr, bypassing slog. Used only by code paths
// that must never go silent even if the logger itself is misconfigured.
func Fallback(messageFmt string, args ...interface{}) {
	fmt.Fprintf(fallbackOutput, messageFmt, args...)
}
