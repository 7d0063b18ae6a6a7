package logging

import (
	"context"
	"log/slog"
	"os"
)

// Setup installs a JSON logger on stdout as the process default. Once the
// database is connected, main swaps it for a Fanout that also records
// ERROR rows in system_logs.
func Setup() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
}

// Fanout returns a handler that forwards each record to every sink whose
// level accepts it.
func Fanout(sinks ...slog.Handler) slog.Handler {
	return fanout(sinks)
}

type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, sink := range f {
		if sink.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, sink := range f {
		if !sink.Enabled(ctx, record.Level) {
			continue
		}
		if err := sink.Handle(ctx, record); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(fanout, len(f))
	for i, sink := range f {
		next[i] = sink.WithAttrs(attrs)
	}
	return next
}

func (f fanout) WithGroup(name string) slog.Handler {
	next := make(fanout, len(f))
	for i, sink := range f {
		next[i] = sink.WithGroup(name)
	}
	return next
}
