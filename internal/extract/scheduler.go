package extract

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Scheduler bounds outbound fetch traffic: at most maxConcurrent fetches in
// flight, and no two fetch starts closer together than minInterval. It
// replaces inline sleeps so the polite-scraping policy is tunable and
// testable on its own.
type Scheduler struct {
	limiter *rate.Limiter
	sem     chan struct{}
}

// NewScheduler builds a scheduler. maxConcurrent below 1 is treated as 1;
// a non-positive minInterval disables the rate ceiling.
func NewScheduler(maxConcurrent int, minInterval time.Duration) *Scheduler {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &Scheduler{
		limiter: rate.NewLimiter(limit, 1),
		sem:     make(chan struct{}, maxConcurrent),
	}
}

// Acquire blocks until a slot and a rate token are available, or the
// context is cancelled. Every successful Acquire must be paired with
// Release.
func (s *Scheduler) Acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := s.limiter.Wait(ctx); err != nil {
		<-s.sem
		return err
	}
	return nil
}

// Release frees the slot taken by Acquire.
func (s *Scheduler) Release() {
	<-s.sem
}
