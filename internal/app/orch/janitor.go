package orch

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// RunJanitor evicts empty rooms idle for longer than ttl every interval until
// ctx is done. A non-positive ttl or interval disables it.
func (o *Orchestrator) RunJanitor(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 || ttl <= 0 {
		log.Info().Str("module", "orch.janitor").Msg("room eviction disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "orch.janitor").Msg("janitor stopped")
			return
		case <-ticker.C:
			if evicted := o.Rooms.EvictIdle(ttl); len(evicted) > 0 {
				log.Debug().Str("module", "orch.janitor").Int("count", len(evicted)).Msg("evicted idle rooms")
			}
		}
	}
}
