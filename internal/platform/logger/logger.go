// Package logger builds the process-wide structured logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a JSON slog logger on stdout at the given level. Dev mode
// switches to the text handler.
func New(level string, devMode bool) *slog.Logger {
	return NewWithWriter(os.Stdout, level, devMode)
}

func NewWithWriter(w io.Writer, level string, devMode bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if devMode {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
