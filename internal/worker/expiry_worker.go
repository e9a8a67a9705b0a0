package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/stemsi/exprep-backend/internal/store"
)

// ExpiryInterval is how often expired learner rows are swept.
const ExpiryInterval = 10 * time.Minute

// ExpiryWorker deletes expired sessions and revoked-token markers from stores
// that do not expire rows on their own.
type ExpiryWorker struct {
	purger   store.Purger
	interval time.Duration
	log      zerolog.Logger
}

// NewExpiryWorker creates a new ExpiryWorker.
func NewExpiryWorker(purger store.Purger, log zerolog.Logger) *ExpiryWorker {
	return &ExpiryWorker{
		purger:   purger,
		interval: ExpiryInterval,
		log:      log.With().Str("component", "expiry_worker").Logger(),
	}
}

// Start sweeps once immediately, then every interval until ctx is done.
// Call in a goroutine.
func (w *ExpiryWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *ExpiryWorker) sweep(ctx context.Context) {
	n, err := w.purger.PurgeExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Error().Err(err).Msg("Purge failed")
		}
		return
	}
	if n > 0 {
		w.log.Debug().Int64("rows", n).Msg("Expired rows purged")
	}
}
