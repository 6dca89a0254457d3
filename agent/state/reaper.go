package state

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultIdleThreshold = 24 * time.Hour
	DefaultSweepInterval = time.Hour
)

// Reaper periodically evicts idle conversation contexts from a Store.
type Reaper struct {
	store    Store
	idle     time.Duration
	interval time.Duration
}

func NewReaper(store Store, interval, idle time.Duration) *Reaper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if idle <= 0 {
		idle = DefaultIdleThreshold
	}
	return &Reaper{
		store:    store,
		idle:     idle,
		interval: interval,
	}
}

// Start runs the sweep loop until ctx is canceled.
func (r *Reaper) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	go func() {
		defer ticker.Stop()
		log.Info().
			Dur("interval", r.interval).
			Dur("idle_threshold", r.idle).
			Msg("session reaper started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("session reaper stopped")
				return
			case <-ticker.C:
				if evicted := r.store.SweepOlderThan(r.idle); evicted > 0 {
					log.Info().Int("evicted", evicted).Msg("idle contexts evicted")
				}
			}
		}
	}()
}
