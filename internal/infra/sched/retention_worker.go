package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"news-site-backend/internal/domain/ports/repository"
	"news-site-backend/internal/infra/redis"
)

const retentionLockKey = "sched:payment_retention"

// RetentionWorker deletes failed and cancelled payments past the retention
// age. Succeeded and refunded payments are kept indefinitely.
type RetentionWorker struct {
	interval time.Duration
	maxAge   time.Duration
	payments repository.PaymentRepository
	locker   redis.Locker
	log      *zerolog.Logger
}

func NewRetentionWorker(interval, maxAge time.Duration, payments repository.PaymentRepository, locker redis.Locker, logger *zerolog.Logger) *RetentionWorker {
	lg := logger.With().Str("component", "RetentionWorker").Logger()
	return &RetentionWorker{
		interval: interval,
		maxAge:   maxAge,
		payments: payments,
		locker:   locker,
		log:      &lg,
	}
}

func (w *RetentionWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting retention worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping retention worker")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *RetentionWorker) tick(ctx context.Context) {
	token, err := w.locker.TryLock(ctx, retentionLockKey, w.interval)
	if err != nil {
		return
	}
	defer w.locker.Unlock(ctx, retentionLockKey, token)

	cutoff := time.Now().Add(-w.maxAge)
	n, err := w.payments.DeleteTerminalOlderThan(ctx, repository.NoTX, cutoff)
	if err != nil {
		w.log.Error().Err(err).Msg("retention sweep error")
		return
	}
	if n > 0 {
		w.log.Info().Int64("count", n).Msg("old terminal payments deleted")
	}
}
