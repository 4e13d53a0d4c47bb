// Package scheduler runs a periodic task on an owned goroutine. It is
// plain dependency-injected state with an explicit Start/Stop lifecycle
// tied to process lifetime; there is no package-level singleton.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Task is one sweep execution. It must be idempotent: the scheduler gives
// no guarantee that two processes do not sweep concurrently.
type Task func(ctx context.Context) error

// Sweeper invokes a task at a fixed interval.
type Sweeper struct {
	interval time.Duration
	task     Task
	log      *logrus.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(interval time.Duration, task Task, log *logrus.Logger) *Sweeper {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Sweeper{interval: interval, task: task, log: log}
}

// Start launches the ticker goroutine. Calling Start on a running sweeper
// is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.task(ctx); err != nil {
					s.log.WithError(err).Warn("sweep failed")
				}
			}
		}
	}()
}

// Stop cancels the goroutine and waits for the in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
