package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultHousekeepingInterval is how often expired states are swept.
const DefaultHousekeepingInterval = 5 * time.Minute

// HousekeepingService periodically removes expired state records so an
// abandoned login never lingers past its TTL, whatever the backend.
type HousekeepingService struct {
	States   *StateService
	Logger   *slog.Logger
	Interval time.Duration

	// Internal channels for lifecycle management
	stopCh   chan struct{}
	doneCh   chan struct{}
	started  atomic.Bool
	stopOnce sync.Once
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to DefaultHousekeepingInterval.
func NewHousekeepingService(states *StateService, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = DefaultHousekeepingInterval
	}

	return &HousekeepingService{
		States:   states,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop to shut it down. Only the
// first call has an effect.
func (s *HousekeepingService) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until the worker has finished any in-progress sweep. It is safe
// to call more than once, and before Start.
func (s *HousekeepingService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if !s.started.Load() {
			return
		}
		<-s.doneCh
		s.Logger.Info("housekeeping service stopped")
	})
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), s.Interval)
	defer cancel()

	n, err := s.States.Sweep(ctx)
	if err != nil {
		s.Logger.Error("failed to delete expired states", "error", err)
		return
	}
	s.Logger.Debug("housekeeping cleanup completed", "deleted_states", n)
}
