package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"news-site-backend/internal/infra/redis"
	"news-site-backend/internal/usecase"
)

const webhookRetryLockKey = "sched:webhook_retry"

// WebhookRetryWorker re-dispatches failed webhook events. Each pass attempts
// every failed event inside the lookback window once; an event that fails
// again simply stays failed until the window moves past it.
type WebhookRetryWorker struct {
	interval  time.Duration
	lookback  time.Duration
	webhookUC usecase.WebhookUseCase
	locker    redis.Locker
	log       *zerolog.Logger
}

func NewWebhookRetryWorker(interval, lookback time.Duration, webhookUC usecase.WebhookUseCase, locker redis.Locker, logger *zerolog.Logger) *WebhookRetryWorker {
	lg := logger.With().Str("component", "WebhookRetryWorker").Logger()
	return &WebhookRetryWorker{
		interval:  interval,
		lookback:  lookback,
		webhookUC: webhookUC,
		locker:    locker,
		log:       &lg,
	}
}

func (w *WebhookRetryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting webhook retry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping webhook retry worker")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *WebhookRetryWorker) tick(ctx context.Context) {
	token, err := w.locker.TryLock(ctx, webhookRetryLockKey, w.interval)
	if err != nil {
		return
	}
	defer w.locker.Unlock(ctx, webhookRetryLockKey, token)

	recovered, err := w.webhookUC.RetryFailed(ctx, w.lookback, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("webhook retry sweep error")
		return
	}
	if recovered > 0 {
		w.log.Info().Int("count", recovered).Msg("failed webhook events recovered")
	}
}
