package app

import (
	"io"
	"log/slog"
	"strings"
)

// serviceName tags every record so logs from several pipelines can be told apart.
const serviceName = "stagegrid"

// newLogger builds the application logger. Unknown levels fall back to info.
// The global logger is left untouched.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(strings.TrimSpace(levelStr))); err != nil {
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

	return slog.New(handler).With(slog.String("service", serviceName))
}
