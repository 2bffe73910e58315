package observability

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Log keys attached to every record of a run.
const (
	logKeyTraceID = "trace_id"
	logKeySpanID  = "span_id"
	logKeyService = "service"
	logKeyMode    = "mode"
	logKeyEnv     = "env"
	logKeyCommand = "command"
)

// RunHandler tags records with the run they belong to and, inside a
// command span, with its trace and span ids.
type RunHandler struct {
	inner slog.Handler
}

// NewRunHandler wraps inner. The run tags are attached before any group so
// they stay top-level.
func NewRunHandler(inner slog.Handler, cfg Config) *RunHandler {
	attrs := []slog.Attr{
		slog.String(logKeyService, cfg.ServiceName),
		slog.String(logKeyMode, string(cfg.Mode)),
	}

	if cfg.Environment != "" {
		attrs = append(attrs, slog.String(logKeyEnv, cfg.Environment))
	}

	if cfg.Run.Command != "" {
		attrs = append(attrs, slog.String(logKeyCommand, cfg.Run.Command))
	}

	return &RunHandler{inner: inner.WithAttrs(attrs)}
}

func (h *RunHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *RunHandler) Handle(ctx context.Context, record slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		record.AddAttrs(
			slog.String(logKeyTraceID, sc.TraceID().String()),
			slog.String(logKeySpanID, sc.SpanID().String()),
		)
	}

	err := h.inner.Handle(ctx, record)
	if err != nil {
		return fmt.Errorf("run log handler: %w", err)
	}

	return nil
}

func (h *RunHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &RunHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *RunHandler) WithGroup(name string) slog.Handler {
	return &RunHandler{inner: h.inner.WithGroup(name)}
}

// LoggerOr returns logger, or one that drops every record when it is nil.
func LoggerOr(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}

	return logger
}
