package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs a job on a fixed interval. A firing that arrives while
// the previous run is still in progress is skipped, so cycles never
// overlap.
type Scheduler struct {
	interval     time.Duration
	initialDelay time.Duration
	job          func(context.Context)
	log          *zap.SugaredLogger
	running      atomic.Bool
}

// New creates a scheduler. initialDelay, when positive, schedules an
// extra first run shortly after startup.
func New(interval, initialDelay time.Duration, job func(context.Context), log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		interval:     interval,
		initialDelay: initialDelay,
		job:          job,
		log:          log,
	}
}

// Start blocks and fires the job until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	if s.initialDelay > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.initialDelay):
			s.fire(ctx)
		}
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fire(ctx)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn("previous run still in progress, skipping this firing")
		return
	}
	go func() {
		defer s.running.Store(false)
		s.job(ctx)
	}()
}
