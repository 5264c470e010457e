package logging

import (
	"context"
	"log/slog"
)

// operationIDHandler wraps another handler to inject an operation_id attribute into all records.
type operationIDHandler struct {
	base        slog.Handler
	operationID string
}

func newOperationIDHandler(base slog.Handler, operationID string) slog.Handler {
	if base == nil {
		return NoopHandler{}
	}
	if operationID == "" {
		return base
	}
	return &operationIDHandler{
		base:        base,
		operationID: operationID,
	}
}

func (h *operationIDHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *operationIDHandler) Handle(ctx context.Context, record slog.Record) error {
	record.AddAttrs(slog.String(FieldOperationID, h.operationID))
	return h.base.Handle(ctx, record)
}

func (h *operationIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &operationIDHandler{
		base:        h.base.WithAttrs(attrs),
		operationID: h.operationID,
	}
}

func (h *operationIDHandler) WithGroup(name string) slog.Handler {
	return &operationIDHandler{
		base:        h.base.WithGroup(name),
		operationID: h.operationID,
	}
}
