package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"news-site-backend/internal/infra/redis"
	"news-site-backend/internal/usecase"
)

const reminderLockKey = "sched:expiry_reminders"

// NotificationWorker mails expiry reminders on a daily cadence.
type NotificationWorker struct {
	interval time.Duration
	leadDays int
	notifUC  usecase.NotificationUseCase
	locker   redis.Locker
	log      *zerolog.Logger
}

func NewNotificationWorker(interval time.Duration, leadDays int, notifUC usecase.NotificationUseCase, locker redis.Locker, logger *zerolog.Logger) *NotificationWorker {
	lg := logger.With().Str("component", "NotificationWorker").Logger()
	return &NotificationWorker{
		interval: interval,
		leadDays: leadDays,
		notifUC:  notifUC,
		locker:   locker,
		log:      &lg,
	}
}

func (w *NotificationWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting notification worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping notification worker")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

func (w *NotificationWorker) tick(ctx context.Context) {
	token, err := w.locker.TryLock(ctx, reminderLockKey, w.interval)
	if err != nil {
		return
	}
	defer w.locker.Unlock(ctx, reminderLockKey, token)

	sent, err := w.notifUC.SendExpiryReminders(ctx, w.leadDays)
	if err != nil {
		w.log.Error().Err(err).Msg("reminder sweep error")
		return
	}
	if sent > 0 {
		w.log.Info().Int("count", sent).Msg("expiry reminders sent")
	}
}
