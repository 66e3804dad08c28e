package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// DefaultComponent tags records from loggers built without an explicit
// component name.
const DefaultComponent = "taskdeck"

type Options struct {
	Level     string
	Writer    io.Writer
	Component string
}

func NewLogger(opts Options) *slog.Logger {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}
	component := strings.TrimSpace(opts.Component)
	if component == "" {
		component = DefaultComponent
	}
	h := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: parseLevel(opts.Level)})
	return slog.New(h).With("component", component)
}

// ForSubsystem tags an existing logger for one subsystem (channel,
// board, plan) without rebuilding the handler.
func ForSubsystem(lg *slog.Logger, name string) *slog.Logger {
	if lg == nil {
		return NewLogger(Options{})
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return lg
	}
	return lg.With("subsystem", name)
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
