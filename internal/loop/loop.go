// Package loop runs every map callback on a single goroutine.
//
// Network events, terrain results and pointer input are posted here so the
// entities and the interaction controller never see concurrent mutation.
package loop

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/OCAP2/gcs/internal/loop"

// Loop is an unbounded FIFO of callbacks drained by Run. Post never blocks,
// so callbacks may post further work.
type Loop struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
	logger  *slog.Logger

	queueSize metric.Int64ObservableGauge
	executed  metric.Int64Counter
	panics    metric.Int64Counter
}

// New creates a loop. Uses the global OTel meter (no-op if not configured).
func New(logger *slog.Logger) (*Loop, error) {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loop{
		wake:   make(chan struct{}, 1),
		logger: logger,
	}

	m := otel.Meter(instrumentationName)

	var err error
	l.queueSize, err = m.Int64ObservableGauge(
		"loop.queue.size",
		metric.WithDescription("Callbacks waiting to run on the event loop"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}
	_, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(l.queueSize, int64(l.Len()))
			return nil
		},
		l.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	l.executed, err = m.Int64Counter(
		"loop.callbacks.executed",
		metric.WithDescription("Total callbacks run on the event loop"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating executed counter: %w", err)
	}
	l.panics, err = m.Int64Counter(
		"loop.callbacks.panicked",
		metric.WithDescription("Total callbacks that panicked"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating panic counter: %w", err)
	}

	return l, nil
}

// Post queues fn to run on the loop goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.pending = append(l.pending, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Len returns the number of queued callbacks.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Run drains the queue until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.RunPending()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// RunPending runs everything queued so far, including work posted by those
// callbacks, and returns how many ran. It must only be called from the loop
// goroutine (or a test standing in for it).
func (l *Loop) RunPending() int {
	n := 0
	for {
		l.mu.Lock()
		batch := l.pending
		l.pending = nil
		l.mu.Unlock()

		if len(batch) == 0 {
			return n
		}
		for _, fn := range batch {
			l.run(fn)
			n++
		}
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.panics.Add(context.Background(), 1)
			l.logger.Error("loop callback panicked", "panic", r)
		}
	}()
	fn()
	l.executed.Add(context.Background(), 1)
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
