package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"news-site-backend/internal/domain/ports/adapter"
	"news-site-backend/internal/domain/ports/repository"
	"news-site-backend/internal/infra/metrics"
)

// Compile-time check
var _ NotificationUseCase = (*notificationUC)(nil)

type NotificationUseCase interface {
	// SendExpiryReminders mails users whose non-renewing subscriptions end in
	// leadDays days. Returns how many reminders were sent.
	SendExpiryReminders(ctx context.Context, leadDays int) (int, error)
}

type notificationUC struct {
	subs   repository.SubscriptionRepository
	users  repository.UserRepository
	plans  repository.SubscriptionPlanRepository
	mailer adapter.Mailer
	log    *zerolog.Logger
}

func NewNotificationUseCase(
	subs repository.SubscriptionRepository,
	users repository.UserRepository,
	plans repository.SubscriptionPlanRepository,
	mailer adapter.Mailer,
	logger *zerolog.Logger,
) *notificationUC {
	lg := logger.With().Str("component", "notification_uc").Logger()
	return &notificationUC{subs: subs, users: users, plans: plans, mailer: mailer, log: &lg}
}

func (n *notificationUC) SendExpiryReminders(ctx context.Context, leadDays int) (int, error) {
	// 24h-wide window ending leadDays out; with a daily cadence each
	// subscription lands in the window exactly once.
	now := time.Now()
	from := now.Add(time.Duration(leadDays-1) * 24 * time.Hour)
	to := now.Add(time.Duration(leadDays) * 24 * time.Hour)

	expiring, err := n.subs.ListExpiringBetween(ctx, repository.NoTX, from, to)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, sub := range expiring {
		user, err := n.users.FindByID(ctx, repository.NoTX, sub.UserID)
		if err != nil {
			n.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("load user for reminder")
			continue
		}
		planName := "your subscription"
		if plan, err := n.plans.FindByID(ctx, repository.NoTX, sub.PlanID); err == nil {
			planName = plan.Name
		}

		subject := fmt.Sprintf("Your subscription expires in %d days", leadDays)
		body := fmt.Sprintf(
			"Hi %s,\n\n%s ends on %s. Renew to keep your benefits, including your pinned post.\n",
			user.DisplayName(), planName, sub.EndDate.Format("January 2, 2006"),
		)
		if err := n.mailer.Send(user.Email, subject, body); err != nil {
			n.log.Error().Err(err).Str("user_id", user.ID).Msg("send expiry reminder")
			continue
		}
		sent++
	}
	if sent > 0 {
		metrics.IncRemindersSent(sent)
	}
	return sent, nil
}
