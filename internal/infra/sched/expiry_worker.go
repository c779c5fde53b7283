package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"news-site-backend/internal/infra/redis"
	"news-site-backend/internal/usecase"
)

const expiryLockKey = "sched:expiry"

// ExpiryWorker periodically moves overdue active subscriptions to expired.
type ExpiryWorker struct {
	interval time.Duration
	subUC    usecase.SubscriptionUseCase
	locker   redis.Locker
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, subUC usecase.SubscriptionUseCase, locker redis.Locker, logger *zerolog.Logger) *ExpiryWorker {
	lg := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval: interval,
		subUC:    subUC,
		locker:   locker,
		log:      &lg,
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
			w.tick(ctx)
		}
	}
}

func (w *ExpiryWorker) tick(ctx context.Context) {
	token, err := w.locker.TryLock(ctx, expiryLockKey, w.interval)
	if err != nil {
		// Another instance owns the sweep.
		return
	}
	defer w.locker.Unlock(ctx, expiryLockKey, token)

	n, err := w.subUC.ExpireDue(ctx, time.Now(), 500)
	if err != nil {
		w.log.Error().Err(err).Msg("expiry sweep error")
		return
	}
	if n > 0 {
		w.log.Info().Int("count", n).Msg("subscriptions expired")
	}
}
