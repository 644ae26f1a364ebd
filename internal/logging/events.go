package logging

import (
	"io"
	"log/slog"

	slogmulti "github.com/samber/slog-multi"
)

// NewEventLogger returns the structured logger for session events.
//
// Every record goes to sink as one JSON object per line. When console is
// non-nil, records are also mirrored there as text, at debug level when
// verbose and from warnings upward otherwise.
func NewEventLogger(sink io.Writer, console io.Writer, verboseConsole bool) *slog.Logger {
	handlers := []slog.Handler{
		slog.NewJSONHandler(sink, &slog.HandlerOptions{Level: slog.LevelDebug}),
	}

	if console != nil {
		level := slog.LevelWarn
		if verboseConsole {
			level = slog.LevelDebug
		}
		handlers = append(handlers, slog.NewTextHandler(console, &slog.HandlerOptions{Level: level}))
	}

	return slog.New(slogmulti.Fanout(handlers...))
}

// DiscardEvents returns an event logger that drops everything.
func DiscardEvents() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
