// Package logging builds the structured loggers used across the daemon.
//
// No third-party structured-logging library surfaced anywhere in the
// reference corpus; log/slog is the one ambient concern in this repository
// built on the standard library rather than an ecosystem package (see
// DESIGN.md).
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options configures a component logger.
type Options struct {
	Level     string
	Writer    io.Writer
	Component string
}

// New builds a JSON-line slog.Logger tagged with a component name.
func New(opts Options) *slog.Logger {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}
	h := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: parseLevel(opts.Level)})
	lg := slog.New(h)
	if strings.TrimSpace(opts.Component) != "" {
		lg = lg.With("component", strings.TrimSpace(opts.Component))
	}
	return lg
}

func parseLevel(level string) slog.Level {
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
