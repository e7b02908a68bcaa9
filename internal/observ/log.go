package observ

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogOptions selects the handler for structured logging.
type LogOptions struct {
	Level  string    // debug|info|warn|error
	Format string    // text|json
	Output io.Writer // defaults to stderr; stdout is reserved for results and JSON-RPC
}

// NewLogger creates a configured *slog.Logger. Everything glint logs goes
// through slog so hosts can filter by level and parse by field.
func NewLogger(opts LogOptions) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	hopts := &slog.HandlerOptions{Level: parseLevel(opts.Level)}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, hopts)
	default:
		handler = slog.NewTextHandler(out, hopts)
	}
	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
