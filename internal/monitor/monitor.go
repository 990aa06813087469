// Package monitor periodically reports the state of the map core.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/OCAP2/gcs/internal/interaction"
)

// DefaultInterval is used when no interval is configured.
const DefaultInterval = 30 * time.Second

// Counter is anything that can report how many items it holds.
type Counter interface {
	Len() int
}

// Runner runs fn on the event loop and waits for it.
type Runner interface {
	Do(ctx context.Context, fn func()) error
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	// Loop owns Vehicles, Missions and Interaction; they are read through it.
	Loop        Runner
	Queue       Counter
	Vehicles    Counter
	Missions    Counter
	Interaction func() interaction.Snapshot
	Outbox      interface{ Pending() int }
	Logger      *slog.Logger
	Interval    time.Duration
	// StatusFile is rewritten with the latest status as JSON. Optional.
	StatusFile  string
}

// Status is one report.
type Status struct {
	Time             time.Time `json:"time"`
	Vehicles         int       `json:"vehicles"`
	Missions         int       `json:"missions"`
	InteractionState string    `json:"interactionState"`
	LoopQueue        int       `json:"loopQueue"`
	OutboxPending    int       `json:"outboxPending"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	logger    *slog.Logger
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		deps:   deps,
		logger: logger.With("component", "monitor"),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Status collects the current status. Engine state is read on the loop.
func (s *Service) Status(ctx context.Context) (Status, error) {
	st := Status{Time: time.Now().UTC()}
	if s.deps.Queue != nil {
		st.LoopQueue = s.deps.Queue.Len()
	}
	if s.deps.Outbox != nil {
		st.OutboxPending = s.deps.Outbox.Pending()
	}

	collect := func() {
		if s.deps.Vehicles != nil {
			st.Vehicles = s.deps.Vehicles.Len()
		}
		if s.deps.Missions != nil {
			st.Missions = s.deps.Missions.Len()
		}
		if s.deps.Interaction != nil {
			st.InteractionState = s.deps.Interaction().State.String()
		}
	}
	if s.deps.Loop == nil {
		collect()
		return st, nil
	}
	if err := s.deps.Loop.Do(ctx, collect); err != nil {
		return st, fmt.Errorf("collect status: %w", err)
	}
	return st, nil
}

// Report collects, logs and optionally writes the status file.
func (s *Service) Report(ctx context.Context) error {
	st, err := s.Status(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("status",
		"vehicles", st.Vehicles,
		"missions", st.Missions,
		"interaction", st.InteractionState,
		"loopQueue", st.LoopQueue,
		"outboxPending", st.OutboxPending,
	)
	if s.deps.StatusFile == "" {
		return nil
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	if err := os.WriteFile(s.deps.StatusFile, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write status file: %w", err)
	}
	return nil
}

// Start starts the status monitor goroutine. It stops on Stop or when ctx
// is done.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
			close(done)
		}()

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				rctx, cancel := context.WithTimeout(ctx, s.deps.Interval)
				if err := s.Report(rctx); err != nil {
					s.logger.Error("status report failed", "error", err)
				}
				cancel()
			}
		}
	}()
}

// Stop stops the status monitor and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	s.isRunning = false
	done := s.done
	s.mu.Unlock()
	<-done
}
