package logging

import (
	"context"
	"log/slog"
	"strings"
)

type monitorKey struct{}

// WithMonitor tags ctx with the monitor name so nested calls can log it.
func WithMonitor(ctx context.Context, name string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, monitorKey{}, name)
}

// MonitorFromContext returns the monitor name stored by WithMonitor.
func MonitorFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	name, ok := ctx.Value(monitorKey{}).(string)
	if !ok || strings.TrimSpace(name) == "" {
		return "", false
	}
	return name, true
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if name, ok := MonitorFromContext(ctx); ok {
		return []slog.Attr{slog.String(FieldMonitor, name)}
	}
	return nil
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
