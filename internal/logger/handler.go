package logger

import (
	"context"
	"errors"
	"log/slog"
)

// routeHandler sends DEBUG records to the debug handler and everything else
// to main.
type routeHandler struct {
	main  slog.Handler
	debug slog.Handler // nil when no debug stream
}

func (h *routeHandler) Enabled(ctx context.Context, l slog.Level) bool {
	if l < slog.LevelInfo {
		return h.debug != nil && h.debug.Enabled(ctx, l)
	}
	return h.main.Enabled(ctx, l)
}

func (h *routeHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < slog.LevelInfo {
		if h.debug == nil {
			return nil
		}
		return h.debug.Handle(ctx, r)
	}
	return h.main.Handle(ctx, r)
}

func (h *routeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := &routeHandler{main: h.main.WithAttrs(attrs)}
	if h.debug != nil {
		out.debug = h.debug.WithAttrs(attrs)
	}
	return out
}

func (h *routeHandler) WithGroup(name string) slog.Handler {
	out := &routeHandler{main: h.main.WithGroup(name)}
	if h.debug != nil {
		out.debug = h.debug.WithGroup(name)
	}
	return out
}

// fanoutHandler writes each record to every handler that accepts its level.
type fanoutHandler []slog.Handler

func fanout(hs []slog.Handler) slog.Handler {
	if len(hs) == 1 {
		return hs[0]
	}
	return fanoutHandler(hs)
}

func (f fanoutHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	out := make(fanoutHandler, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
