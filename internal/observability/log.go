package observability

import (
	"io"
	"log/slog"
)

// NoopLogger returns a Logger that drops every record.
func NoopLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// NewLogger returns a text Logger writing to w records of level or above.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// LevelFor returns DEBUG if debug is set, INFO otherwise.
func LevelFor(debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
