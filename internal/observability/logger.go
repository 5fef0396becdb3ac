package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger writes JSON to stdout. level ("debug", "info", "warn", "error")
// overrides the env default: debug in dev, info elsewhere.
func NewLogger(env, level string) *slog.Logger {
	return newLogger(os.Stdout, env, level)
}

func newLogger(w io.Writer, env, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(env, level),
	})

	return slog.New(NewContextHandler(handler)).With("env", env)
}

func parseLevel(env, level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	if env == "dev" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
