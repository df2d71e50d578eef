package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds the process logger writing to stdout and installs it as the slog default.
func New(logFormat, logLevel string) *slog.Logger {
	logger := NewWithWriter(os.Stdout, logFormat, logLevel)

	slog.SetDefault(logger)

	return logger
}

// NewWithWriter builds a logger for the given format (json or text) and level.
// Unknown values fall back to json and info. Debug level adds source locations.
func NewWithWriter(w io.Writer, logFormat, logLevel string) *slog.Logger {
	level := parseLevel(logLevel)
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler

	switch strings.ToLower(logFormat) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With("service", "rover-controller")
}

func parseLevel(logLevel string) slog.Level {
	switch strings.ToLower(logLevel) {
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
