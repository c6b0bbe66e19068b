package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Config controls the process-wide JSON logger. Level is one of debug, info,
// warn or error (case-insensitive); anything else falls back to info.
type Config struct {
	ServiceName string
	Environment string
	Level       string
}

// NewLogger builds a JSON logger writing to stdout with the service name and
// environment stamped on every line. Callers typically install it via
// slog.SetDefault at startup.
func NewLogger(cfg Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(handler).With(
		slog.String("service", cfg.ServiceName),
		slog.String("env", cfg.Environment),
	)
}
