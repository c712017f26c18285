// Package scheduler triggers scrape runs for stores whose refresh interval
// has elapsed.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"price_tracker/internal/orchestrator"
	"price_tracker/internal/storage"
)

// Runner is the interface for triggering a single store scrape.
type Runner interface {
	ScrapeOne(ctx context.Context, storeID int64) (*orchestrator.Result, error)
}

// Scheduler periodically scrapes stores that are due.
type Scheduler struct {
	store  storage.Storage
	runner Runner
	log    *slog.Logger
	tick   time.Duration
}

// New creates a Scheduler with a 5-minute check interval.
func New(store storage.Storage, runner Runner, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:  store,
		runner: runner,
		log:    log,
		tick:   5 * time.Minute,
	}
}

// SetTickInterval overrides the default check interval.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.checkDue(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkDue(ctx)
		}
	}
}

func (s *Scheduler) checkDue(ctx context.Context) {
	stores, err := s.store.ListDueStores(ctx)
	if err != nil {
		s.log.Error("list due stores", "error", err)
		return
	}

	for _, st := range stores {
		if ctx.Err() != nil {
			return
		}
		s.log.Debug("store due for scrape", "store_id", st.ID, "name", st.Name)

		res, err := s.runner.ScrapeOne(ctx, st.ID)
		if err != nil {
			s.log.Error("scheduled scrape", "store_id", st.ID, "error", err)
			continue
		}
		if res.Err != nil {
			s.log.Warn("scheduled scrape failed",
				"store", res.StoreName, "error", res.Err)
			continue
		}
		s.log.Info("scheduled scrape done",
			"store", res.StoreName, "items", res.Items, "saved", res.Saved)
	}
}
