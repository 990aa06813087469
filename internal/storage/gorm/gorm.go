// Package gormstorage implements the storage.Backend interface on GORM with
// internal queues and a background writer goroutine. The sqlite and
// postgres backends embed it and only differ in how the DB is opened.
package gormstorage

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/OCAP2/gcs/internal/queue"
	"github.com/OCAP2/gcs/internal/storage"
)

// DefaultFlushInterval is how often queued rows are written.
const DefaultFlushInterval = 2 * time.Second

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	FlushInterval time.Duration
}

// Backend implements storage.Backend with queue-based batch writes.
//
// Proposal rows are queued per proposal and status, so every transition is
// kept. Navigation rows are queued per vehicle, so at most one sample per
// vehicle is written per flush.
type Backend struct {
	deps       Dependencies
	logger     *slog.Logger
	proposals  *queue.Queue[string, ProposalEntry]
	navigation *queue.Queue[string, NavigationEntry]

	flushMu  sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		deps:       deps,
		logger:     logger.With("component", "journal"),
		proposals:  queue.New[string, ProposalEntry](),
		navigation: queue.New[string, NavigationEntry](),
	}
}

// Init runs schema migration and starts the DB writer goroutine.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return errors.New("gorm backend needs a database")
	}
	if err := b.deps.DB.AutoMigrate(Models...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	b.logger.Info("journal schema migrated", "dialect", b.deps.DB.Name())

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writeLoop()
	return nil
}

// Close stops the DB writer goroutine and writes what is still queued.
func (b *Backend) Close() error {
	if b.stopChan == nil {
		return nil
	}
	close(b.stopChan)
	<-b.done
	b.stopChan = nil
	return b.Flush()
}

// RecordProposal converts and queues a proposal record.
func (b *Backend) RecordProposal(p *storage.ProposalRecord) error {
	b.proposals.Push(proposalKey(p.ID.String(), p.Status), proposalEntry(p))
	return nil
}

// RecordNavigation converts and queues a navigation sample, replacing a
// sample of the same vehicle that is still waiting.
func (b *Backend) RecordNavigation(n *storage.NavigationRecord) error {
	b.navigation.Push(n.VehicleID, navigationEntry(n))
	return nil
}

// Pending returns the number of queued rows.
func (b *Backend) Pending() int {
	return b.proposals.Len() + b.navigation.Len()
}

// Flush writes all queued rows.
func (b *Backend) Flush() error {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	err := writeQueue(b.deps.DB, b.proposals, func(e ProposalEntry) string {
		return proposalKey(e.ProposalID, storage.ProposalStatus(e.Status))
	})
	if err != nil {
		return fmt.Errorf("writing proposals: %w", err)
	}
	err = writeQueue(b.deps.DB, b.navigation, func(e NavigationEntry) string {
		return e.VehicleID
	})
	if err != nil {
		return fmt.Errorf("writing navigation: %w", err)
	}
	return nil
}

func proposalKey(id string, status storage.ProposalStatus) string {
	return id + "/" + string(status)
}

// writeQueue writes all items from a queue in a transaction. On failure the
// items go back to the queue unless newer ones replaced them.
func writeQueue[T any](db *gorm.DB, q *queue.Queue[string, T], key func(T) string) error {
	if q.Empty() {
		return nil
	}

	items := q.GetAndEmpty()
	tx := db.Begin()
	if err := tx.Create(&items).Error; err != nil {
		tx.Rollback()
		for _, item := range items {
			q.Requeue(key(item), item)
		}
		return err
	}
	return tx.Commit().Error
}

// writeLoop periodically drains the queues into the DB.
func (b *Backend) writeLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.logger.Error("journal write failed", "error", err, "pending", b.Pending())
			}
		}
	}
}
