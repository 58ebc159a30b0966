// Package logging builds the process-wide structured logger: JSON records
// to a rotating file, warnings and errors mirrored to stderr as text.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/unklstewy/atc-ingest/pkg/config"
)

// New builds a *slog.Logger per cfg. The returned io.Closer flushes and
// closes the underlying rotating file; callers should close it on
// shutdown.
func New(cfg config.LoggingConfig) (*slog.Logger, *lumberjack.Logger) {
	dir := cfg.Directory
	if dir == "" {
		dir = "."
	}

	writer := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "atc-ingest.log"),
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}

	level := parseLevel(cfg.Level)
	h := newHandler(writer, &slog.HandlerOptions{Level: level})

	return slog.New(h), writer
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "info", "":
		return slog.LevelInfo
	default:
		fmt.Fprintf(os.Stderr, "logging: unrecognized level %q, defaulting to info\n", level)
		return slog.LevelInfo
	}
}

// handler fans every record out to a JSON file handler and, for warnings
// and above, a text handler on stderr.
type handler struct {
	json slog.Handler
	txt  slog.Handler
}

func newHandler(w *lumberjack.Logger, opts *slog.HandlerOptions) *handler {
	return &handler{
		json: slog.NewJSONHandler(w, opts),
		txt:  slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}
}

func (h *handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.json.Enabled(ctx, level) || h.txt.Enabled(ctx, level)
}

func (h *handler) Handle(ctx context.Context, rec slog.Record) error {
	if h.txt.Enabled(ctx, rec.Level) {
		_ = h.txt.Handle(ctx, rec)
	}
	if h.json.Enabled(ctx, rec.Level) {
		return h.json.Handle(ctx, rec)
	}
	return nil
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &handler{
		json: h.json.WithAttrs(slices.Clone(attrs)),
		txt:  h.txt.WithAttrs(slices.Clone(attrs)),
	}
}

func (h *handler) WithGroup(name string) slog.Handler {
	return &handler{
		json: h.json.WithGroup(name),
		txt:  h.txt.WithGroup(name),
	}
}
