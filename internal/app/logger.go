package app

import (
	"io"
	"log/slog"
)

// newLogger builds the logger of one App. It does not touch the global
// logger, so several apps can log to different writers. levelStr and
// formatStr are validated by NewConfig; an unparsable level means info.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch formatStr {
	case "json":
		handler = slog.NewJSONHandler(outW, opts)
	default:
		handler = slog.NewTextHandler(outW, opts)
	}
	return slog.New(handler).With("app", "specctl")
}
