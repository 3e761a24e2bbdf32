package logging

import (
	"context"
	"log/slog"
)

// sessionIDHandler stamps every record with the daemon run's session_id
// unless the record already carries one from a watcher session.
type sessionIDHandler struct {
	base      slog.Handler
	sessionID string
	bound     bool
}

func newSessionIDHandler(base slog.Handler, sessionID string) slog.Handler {
	if base == nil {
		return NoopHandler{}
	}
	return &sessionIDHandler{base: base, sessionID: sessionID}
}

func (h *sessionIDHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

func (h *sessionIDHandler) Handle(ctx context.Context, record slog.Record) error {
	if !h.bound {
		present := false
		record.Attrs(func(a slog.Attr) bool {
			if a.Key == FieldSessionID {
				present = true
				return false
			}
			return true
		})
		if !present {
			record.AddAttrs(slog.String(FieldSessionID, h.sessionID))
		}
	}
	return h.base.Handle(ctx, record)
}

func (h *sessionIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := h.bound
	for _, a := range attrs {
		if a.Key == FieldSessionID {
			bound = true
		}
	}
	return &sessionIDHandler{base: h.base.WithAttrs(attrs), sessionID: h.sessionID, bound: bound}
}

func (h *sessionIDHandler) WithGroup(name string) slog.Handler {
	return &sessionIDHandler{base: h.base.WithGroup(name), sessionID: h.sessionID, bound: h.bound}
}
