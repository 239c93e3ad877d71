package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Refresher reloads a cached query from the backend
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RefresherFunc adapts a function to Refresher
type RefresherFunc func(ctx context.Context) error

// Refresh implements Refresher
func (f RefresherFunc) Refresh(ctx context.Context) error {
	return f(ctx)
}

// Scheduler periodically refreshes the publication list so scheduled
// publications flipped by the backend show up without a user action
type Scheduler struct {
	refresher Refresher
	interval  time.Duration
	logger    *slog.Logger
	stopCh    chan struct{}
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

// New creates a new scheduler
func New(refresher Refresher, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		refresher: refresher,
		interval:  interval,
		logger:    logger,
	}
}

// Start starts the scheduler. Calling Start twice is a no-op; Start after
// Stop starts it again.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	s.logger.Info("publication refresher started", "interval", s.interval)

	s.wg.Add(1)
	go s.run(ctx, stopCh)
}

// Stop stops the scheduler and waits for the running refresh to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stopCh := s.stopCh
	s.mu.Unlock()

	close(stopCh)
	s.wg.Wait()
	s.logger.Info("publication refresher stopped")
}

func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refresh(ctx)
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) refresh(ctx context.Context) {
	s.logger.Debug("refreshing publications")

	if err := s.refresher.Refresh(ctx); err != nil {
		s.logger.Warn("failed to refresh publications", "error", err)
	}
}
