package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns a JSON-structured logger for the compiler.
func New(level slog.Level) *slog.Logger {
	return NewWriter(os.Stderr, level)
}

// NewWriter returns a JSON-structured logger writing to w. Tests and the
// generation-log artifact use this to capture output.
func NewWriter(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// ParseLevel maps a CLI level string onto a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
