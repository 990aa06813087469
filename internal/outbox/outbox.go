// Package outbox sends operator proposals to the backend off the map loop.
//
// Proposals are coalesced per target: while one is waiting, a newer proposal
// with the same key replaces it. Every state change is journaled.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/OCAP2/gcs/internal/queue"
	"github.com/OCAP2/gcs/internal/storage"
	"github.com/OCAP2/gcs/pkg/core"
)

const instrumentationName = "github.com/OCAP2/gcs/internal/outbox"

// DefaultTimeout bounds a single publish.
const DefaultTimeout = 10 * time.Second

// ErrClosed is returned by Submit once the outbox stopped.
var ErrClosed = errors.New("outbox closed")

// Publisher delivers one proposal. *api.Client implements it.
type Publisher interface {
	Publish(ctx context.Context, p core.Proposal) error
}

// Poster runs fn on the map loop.
type Poster interface {
	Post(fn func())
}

// Dependencies holds all dependencies for the outbox.
type Dependencies struct {
	Publisher Publisher
	// Journal is optional.
	Journal storage.Backend
	// Poster and OnFailed are optional. OnFailed is posted when a proposal
	// could not be delivered, so the pending marker can be dropped.
	Poster   Poster
	OnFailed func(core.Proposal)
	Logger   *slog.Logger
	Timeout  time.Duration
}

type envelope struct {
	id       uuid.UUID
	proposal core.Proposal
}

// Outbox is a keyed queue drained by Run.
type Outbox struct {
	deps   Dependencies
	logger *slog.Logger
	queue  *queue.Queue[string, envelope]

	mu       sync.Mutex
	closed   bool
	inflight atomic.Int64

	sent    metric.Int64Counter
	dropped metric.Int64Counter
}

// New creates an outbox. Uses the global OTel meter (no-op if not configured).
func New(deps Dependencies) (*Outbox, error) {
	if deps.Publisher == nil {
		return nil, errors.New("outbox needs a publisher")
	}
	if deps.Timeout <= 0 {
		deps.Timeout = DefaultTimeout
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	o := &Outbox{
		deps:   deps,
		logger: logger.With("component", "outbox"),
		queue:  queue.New[string, envelope](),
	}

	m := otel.Meter(instrumentationName)
	var err error
	o.sent, err = m.Int64Counter(
		"outbox.proposals.sent",
		metric.WithDescription("Proposals delivered to the backend"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sent counter: %w", err)
	}
	o.dropped, err = m.Int64Counter(
		"outbox.proposals.dropped",
		metric.WithDescription("Proposals superseded or failed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}
	return o, nil
}

// Submit queues p, superseding any waiting proposal with the same key.
func (o *Outbox) Submit(p core.Proposal) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}

	env := envelope{id: uuid.New(), proposal: p}
	o.journal(env, storage.ProposalQueued, nil)
	if old, replaced := o.queue.Put(p.Key(), env); replaced {
		o.dropped.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", "superseded")))
		o.journal(old, storage.ProposalSuperseded, nil)
		o.logger.Debug("proposal superseded", "key", p.Key(), "id", old.id)
	}
	return nil
}

// Pending returns the number of proposals queued or being sent.
func (o *Outbox) Pending() int {
	return o.queue.Len() + int(o.inflight.Load())
}

// Run sends queued proposals until ctx is done. Proposals still waiting
// then are journaled as failed and reported through OnFailed.
func (o *Outbox) Run(ctx context.Context) error {
	defer o.shutdown()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-o.queue.Ready():
			for {
				if ctx.Err() != nil {
					return nil
				}
				_, env, ok := o.queue.Pop()
				if !ok {
					break
				}
				o.send(ctx, env)
			}
		}
	}
}

func (o *Outbox) send(ctx context.Context, env envelope) {
	o.inflight.Add(1)
	defer o.inflight.Add(-1)

	sendCtx, cancel := context.WithTimeout(ctx, o.deps.Timeout)
	defer cancel()

	start := time.Now()
	if err := o.deps.Publisher.Publish(sendCtx, env.proposal); err != nil {
		o.fail(env, err)
		return
	}
	o.sent.Add(ctx, 1)
	o.journal(env, storage.ProposalSent, nil)
	o.logger.Debug("proposal sent", "key", env.proposal.Key(), "id", env.id, "duration", time.Since(start))
}

func (o *Outbox) fail(env envelope, err error) {
	o.dropped.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", "failed")))
	o.journal(env, storage.ProposalFailed, err)
	o.logger.Warn("proposal failed", "key", env.proposal.Key(), "id", env.id, "error", err)

	if o.deps.OnFailed == nil {
		return
	}
	p := env.proposal
	if o.deps.Poster != nil {
		o.deps.Poster.Post(func() { o.deps.OnFailed(p) })
	} else {
		o.deps.OnFailed(p)
	}
}

func (o *Outbox) shutdown() {
	o.mu.Lock()
	o.closed = true
	remaining := o.queue.GetAndEmpty()
	o.mu.Unlock()

	for _, env := range remaining {
		o.fail(env, ErrClosed)
	}
}

func (o *Outbox) journal(env envelope, status storage.ProposalStatus, err error) {
	if o.deps.Journal == nil {
		return
	}
	r := storage.NewProposalRecord(env.id, env.proposal, status)
	if err != nil {
		r.Error = err.Error()
	}
	if jerr := o.deps.Journal.RecordProposal(&r); jerr != nil {
		o.logger.Error("failed to journal proposal", "key", r.Key, "status", status, "error", jerr)
	}
}
