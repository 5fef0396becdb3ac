package observability

import (
	"context"
	"log/slog"

	"github.com/geocoder89/worldofhackaton/internal/actorctx"
	"go.opentelemetry.io/otel/trace"
)

// ContextHandler stamps every record with what the context knows about the
// request: the active span, the request id and the authenticated caller.
// Attributes the caller already passed win over the stamped ones.
type ContextHandler struct {
	next slog.Handler
}

func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ctx == nil {
		return h.next.Handle(ctx, r)
	}

	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	present := map[string]bool{}
	r.Attrs(func(a slog.Attr) bool {
		present[a.Key] = true
		return true
	})

	if id := actorctx.RequestID(ctx); id != "" && !present["request_id"] {
		r.AddAttrs(slog.String("request_id", id))
	}

	if actor, ok := actorctx.From(ctx); ok {
		if !present["actor_id"] {
			r.AddAttrs(slog.Int64("actor_id", actor.UserID))
		}
		if !present["actor_role"] {
			r.AddAttrs(slog.String("actor_role", actor.Role))
		}
	}

	return h.next.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}
