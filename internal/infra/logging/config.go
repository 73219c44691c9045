// Package logging configures the process-wide slog logger and carries
// the per-run correlation id through contexts.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// InitLogger installs a JSON handler as the slog default. Components
// scope themselves with slog.With("component", ...) on top of it.
func InitLogger(logLevel string) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       levelFromString(logLevel),
		ReplaceAttr: renameStandardKeys,
	})
	slog.SetDefault(slog.New(handler))
}

// renameStandardKeys maps slog's default keys onto the field names the
// log-shipping side expects.
func renameStandardKeys(groups []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "timestamp"
	case slog.LevelKey:
		a.Key = "level"
	case slog.MessageKey:
		a.Key = "message"
	}
	return a
}

// levelFromString parses a level name case-insensitively, defaulting to
// INFO for anything unrecognized.
func levelFromString(logLevel string) slog.Level {
	switch strings.ToUpper(logLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
