// Package logger provides the slog handler used by the catalog.
package logger

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
)

const (
	RequestIDKey = "request_id"
	TraceIDKey   = "trace_id"
	SpanIDKey    = "span_id"
)

// ContextHandler decorates records with the request ID stored by the router
// and the IDs of the active span, if any.
type ContextHandler struct {
	slog.Handler
	// hasRequestID is set once a request_id attribute was bound with WithAttrs.
	hasRequestID bool
}

// NewContextHandler wraps handler.
func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{Handler: handler}
}

// Handle adds the context attributes that are not already bound to the logger.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String(TraceIDKey, sc.TraceID().String()),
			slog.String(SpanIDKey, sc.SpanID().String()),
		)
	}
	if !h.hasRequestID {
		if reqID := middleware.GetReqID(ctx); reqID != "" {
			r.AddAttrs(slog.String(RequestIDKey, reqID))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	hasRequestID := h.hasRequestID
	for _, a := range attrs {
		if a.Key == RequestIDKey {
			hasRequestID = true
		}
	}
	return &ContextHandler{Handler: h.Handler.WithAttrs(attrs), hasRequestID: hasRequestID}
}

// WithGroup nests later attributes. Context attributes then land inside the group too.
func (h *ContextHandler) WithGroup(group string) slog.Handler {
	return &ContextHandler{Handler: h.Handler.WithGroup(group), hasRequestID: h.hasRequestID}
}
