package logging

import (
	"context"
	"errors"
	"log/slog"
)

// Sink is one output of a Fanout.
type Sink struct {
	Handler slog.Handler
	// Level raises the minimum level of Handler for this sink. Optional.
	Level slog.Leveler
}

func (s Sink) enabled(ctx context.Context, level slog.Level) bool {
	if s.Level != nil && level < s.Level.Level() {
		return false
	}
	return s.Handler.Enabled(ctx, level)
}

// Fanout sends every record to each sink that accepts its level.
type Fanout struct {
	sinks []Sink
}

// NewFanout creates a Fanout. Sinks without a handler are dropped.
func NewFanout(sinks ...Sink) *Fanout {
	f := &Fanout{sinks: make([]Sink, 0, len(sinks))}
	for _, s := range sinks {
		if s.Handler != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Len returns the number of sinks.
func (f *Fanout) Len() int { return len(f.sinks) }

func (f *Fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range f.sinks {
		if s.enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes to all accepting sinks. A failing sink does not stop the
// others; their errors are joined.
func (f *Fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range f.sinks {
		if !s.enabled(ctx, r.Level) {
			continue
		}
		if err := s.Handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f *Fanout) WithGroup(name string) slog.Handler {
	if name == "" {
		return f
	}
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f *Fanout) derive(fn func(slog.Handler) slog.Handler) *Fanout {
	sinks := make([]Sink, len(f.sinks))
	for i, s := range f.sinks {
		sinks[i] = Sink{Handler: fn(s.Handler), Level: s.Level}
	}
	return &Fanout{sinks: sinks}
}

// ContextProvider returns attributes evaluated when a record is handled,
// such as the loop queue depth.
type ContextProvider func() []slog.Attr

type dynamicAttrs struct {
	inner    slog.Handler
	provider ContextProvider
}

// WithDynamicAttrs appends the provider's attributes to every record handled
// by inner. A nil provider returns inner unchanged.
func WithDynamicAttrs(inner slog.Handler, provider ContextProvider) slog.Handler {
	if provider == nil {
		return inner
	}
	return &dynamicAttrs{inner: inner, provider: provider}
}

func (h *dynamicAttrs) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *dynamicAttrs) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(h.provider()...)
	return h.inner.Handle(ctx, r)
}

func (h *dynamicAttrs) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &dynamicAttrs{inner: h.inner.WithAttrs(attrs), provider: h.provider}
}

func (h *dynamicAttrs) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &dynamicAttrs{inner: h.inner.WithGroup(name), provider: h.provider}
}
