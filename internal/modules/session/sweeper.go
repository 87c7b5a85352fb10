// README: Idle-session sweeper: ticker loop marking stale conversations abandoned.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"wayfarer/internal/config"
)

const sweepBatchSize = 200

var errStillActive = errors.New("session touched since index read")

// Sweeper periodically marks sessions idle past the TTL as abandoned.
// Abandoned is recoverable: the next chat message revives the session.
type Sweeper struct {
	store *Store
	cfg   config.SessionConfig
}

func NewSweeper(store *Store, cfg config.SessionConfig) *Sweeper {
	return &Sweeper{store: store, cfg: cfg}
}

// Run blocks until ctx is cancelled, sweeping on every tick.
func (w *Sweeper) Run(ctx context.Context) {
	log.Info().
		Dur("idle_ttl", w.cfg.IdleTTL).
		Dur("interval", w.cfg.SweepInterval).
		Msg("session sweeper started")

	ticker := time.NewTicker(w.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("session sweeper stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *Sweeper) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-w.cfg.IdleTTL)
	ids, err := w.store.IdleSessionIDs(ctx, cutoff, sweepBatchSize)
	if err != nil {
		log.Warn().Err(err).Msg("idle sweep query failed")
		return
	}

	marked := 0
	for _, id := range ids {
		_, err := w.store.Update(ctx, id, func(cur *TravelSession) error {
			if cur.UpdatedAt.After(cutoff) {
				return errStillActive
			}
			if !CanTransition(cur.Status, StatusAbandoned) {
				return errStillActive
			}
			cur.Status = StatusAbandoned
			return nil
		})
		switch {
		case err == nil:
			marked++
		case errors.Is(err, errStillActive), errors.Is(err, ErrNotFound):
			// Raced with a chat turn or a delete; nothing to do.
		default:
			log.Warn().Err(err).Str("session_id", string(id)).Msg("idle sweep update failed")
		}
	}
	if marked > 0 {
		log.Info().Int("sessions", marked).Msg("idle sessions marked abandoned")
	}
}
