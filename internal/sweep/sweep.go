// Package sweep periodically deletes expired punishments from the store.
package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"tangled.org/briar.gg/briar/internal/metrics"
	"tangled.org/briar.gg/briar/internal/punishment"
)

// Sweeper runs the expiry sweep at a fixed interval. The sweep is
// idempotent and safe at any frequency; a second sweep finds nothing to do.
type Sweeper struct {
	store    punishment.Store
	interval time.Duration
}

// New creates a Sweeper.
func New(store punishment.Store, interval time.Duration) *Sweeper {
	return &Sweeper{store: store, interval: interval}
}

// Run sweeps once immediately and then on every tick until ctx is
// cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	log.Info().Dur("interval", s.interval).Msg("sweep: started")

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sweep: stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	deleted, err := s.store.CleanExpiredPunishments(ctx)
	if err != nil {
		log.Error().Err(err).Msg("sweep: clean expired punishments")
		return
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Msg("sweep: cleaned expired punishments")
	}
	metrics.ExpiredPunishmentsCleanedTotal.Add(float64(deleted))
}
