package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Expirer flips overdue subscription snapshots to expired.
type Expirer interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

// ExpiryWorker periodically sweeps overdue subscriptions via the use case.
type ExpiryWorker struct {
	interval time.Duration
	expirer  Expirer
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, expirer Expirer, logger *zerolog.Logger) *ExpiryWorker {
	exprLog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval: interval,
		expirer:  expirer,
		log:      &exprLog,
	}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.expirer.ExpireOverdue(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("expiry worker error")
			}
			if n > 0 {
				w.log.Info().Int("count", n).Msg("overdue subscriptions expired")
			}
		}
	}
}
