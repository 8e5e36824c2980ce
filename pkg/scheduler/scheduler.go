// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// Job is one scheduled unit of work
type Job func(ctx context.Context) error

// Scheduler runs a job periodically until stopped
type Scheduler struct {
	name     string
	job      Job
	interval time.Duration
	logger   *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewScheduler creates a new scheduler
func NewScheduler(name string, interval time.Duration, job Job, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		name:     name,
		job:      job,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start begins the scheduler. The first run happens one interval from now.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	ticker := time.NewTicker(s.interval)
	go func() {
		defer close(s.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.run(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Scheduler) run(ctx context.Context) {
	start := time.Now()
	err := s.job(ctx)
	switch {
	case err == nil:
		s.logger.Debug("scheduled job finished", "job", s.name, "duration", time.Since(start))
	case errors.Is(err, context.Canceled):
		s.logger.Debug("scheduled job cancelled", "job", s.name)
	default:
		// a busy library is retried on the next tick
		s.logger.Warn("scheduled job failed", "job", s.name, "error", err)
	}
}

// Stop cancels a running job and waits for the loop to exit
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		if s.cancel == nil {
			close(s.done)
			return
		}
		s.cancel()
	})
	<-s.done
}
