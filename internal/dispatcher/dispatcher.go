// Package dispatcher routes decoded server events to the handler registered
// for their type, counting each outcome on the global OTel meter.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/OCAP2/gcs/pkg/core"
)

const instrumentationName = "github.com/OCAP2/gcs/internal/dispatcher"

// ErrUnknownEvent is returned by Dispatch when no handler is registered for
// the event type.
var ErrUnknownEvent = errors.New("unknown event type")

// Event is one decoded server event waiting to be applied.
type Event struct {
	Type     string
	Payload  core.ServerEvent
	Received time.Time
}

// NewEvent wraps a decoded server event.
func NewEvent(ev core.ServerEvent) Event {
	return Event{Type: ev.EventName(), Payload: ev, Received: time.Now()}
}

// HandlerFunc applies an event.
type HandlerFunc func(Event) error

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Poster runs callbacks on another goroutine, usually the map event loop.
type Poster interface {
	Post(fn func())
}

// Option configures handler registration.
type Option func(*options)

type options struct {
	poster Poster
	logged bool
}

// OnLoop hands the event to p instead of running the handler in the
// caller's goroutine. Dispatch returns as soon as the event is posted.
func OnLoop(p Poster) Option {
	return func(o *options) { o.poster = p }
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(o *options) { o.logged = true }
}

type counters struct {
	processed metric.Int64Counter
	failed    metric.Int64Counter
	unknown   metric.Int64Counter
}

func newCounters(m metric.Meter) (counters, error) {
	var c counters
	for _, def := range []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&c.processed, "dispatcher.events.processed", "Total events applied"},
		{&c.failed, "dispatcher.events.failed", "Total events whose handler returned an error"},
		{&c.unknown, "dispatcher.events.unknown", "Total events with no registered handler"},
	} {
		counter, err := m.Int64Counter(def.name, metric.WithDescription(def.desc))
		if err != nil {
			return c, fmt.Errorf("creating %s counter: %w", def.name, err)
		}
		*def.dst = counter
	}
	return c, nil
}

// Dispatcher routes events to registered handlers by type. Registration is
// not safe for concurrent use and must finish before the feed starts.
type Dispatcher struct {
	handlers map[string]HandlerFunc
	logger   Logger
	metrics  counters
}

// New creates a Dispatcher. A nil logger discards Logged output. Metrics go
// to the global OTel meter, which is a no-op until a provider is installed.
func New(logger Logger) (*Dispatcher, error) {
	if logger == nil {
		logger = nopLogger{}
	}
	c, err := newCounters(otel.Meter(instrumentationName))
	if err != nil {
		return nil, err
	}
	return &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
		metrics:  c,
	}, nil
}

// Register adds a handler for the given event type, replacing any previous
// one. Metrics wrap the handler first, then logging, then posting.
func (d *Dispatcher) Register(eventType string, h HandlerFunc, opts ...Option) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	handler := d.counted(eventType, h)
	if o.logged {
		handler = d.logged(eventType, handler)
	}
	if o.poster != nil {
		handler = posted(o.poster, handler)
	}
	d.handlers[eventType] = handler
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(e Event) error {
	h, ok := d.handlers[e.Type]
	if !ok {
		d.metrics.unknown.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("type", e.Type)))
		return fmt.Errorf("%w: %s", ErrUnknownEvent, e.Type)
	}
	return h(e)
}

// HasHandler returns true if a handler is registered for the event type.
func (d *Dispatcher) HasHandler(eventType string) bool {
	_, ok := d.handlers[eventType]
	return ok
}

// Types returns the registered event types, sorted.
func (d *Dispatcher) Types() []string {
	types := make([]string, 0, len(d.handlers))
	for t := range d.handlers {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

func (d *Dispatcher) counted(eventType string, h HandlerFunc) HandlerFunc {
	typeAttr := metric.WithAttributes(attribute.String("type", eventType))
	return func(e Event) error {
		err := h(e)
		counter := d.metrics.processed
		if err != nil {
			counter = d.metrics.failed
		}
		counter.Add(context.Background(), 1, typeAttr)
		return err
	}
}

func (d *Dispatcher) logged(eventType string, h HandlerFunc) HandlerFunc {
	return func(e Event) error {
		start := time.Now()
		d.logger.Debug("applying event", "type", eventType, "age", start.Sub(e.Received))

		if err := h(e); err != nil {
			d.logger.Error("event failed", "type", eventType, "duration", time.Since(start), "error", err)
			return err
		}
		d.logger.Debug("event applied", "type", eventType, "duration", time.Since(start))
		return nil
	}
}

// posted defers h to p. The handler's error is dropped once posted; it has
// already been counted and, for Logged handlers, logged.
func posted(p Poster, h HandlerFunc) HandlerFunc {
	return func(e Event) error {
		p.Post(func() { _ = h(e) })
		return nil
	}
}
