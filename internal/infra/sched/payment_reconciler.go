package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"news-site-backend/internal/domain/ports/adapter"
	"news-site-backend/internal/domain/ports/repository"
	"news-site-backend/internal/usecase"
)

// PaymentReconciler scans for stale processing payments and tries to finalize
// them against provider session state. This covers webhooks that never
// arrived or a process that crashed mid-transition.
type PaymentReconciler struct {
	uc         usecase.PaymentUseCase
	payments   repository.PaymentRepository
	gateway    adapter.PaymentGateway
	interval   time.Duration
	staleAfter time.Duration
	log        *zerolog.Logger
}

func NewPaymentReconciler(uc usecase.PaymentUseCase, payments repository.PaymentRepository, gateway adapter.PaymentGateway, interval, staleAfter time.Duration, logger *zerolog.Logger) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	lg := logger.With().Str("component", "PaymentReconciler").Logger()
	return &PaymentReconciler{
		uc:         uc,
		payments:   payments,
		gateway:    gateway,
		interval:   interval,
		staleAfter: staleAfter,
		log:        &lg,
	}
}

func (w *PaymentReconciler) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting payment reconciler")
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping payment reconciler")
			return ctx.Err()
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	stale, err := w.payments.ListProcessingOlderThan(ctx, repository.NoTX, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("list stale payments")
		return
	}
	for _, p := range stale {
		if p.ProviderSessionID == "" {
			continue
		}
		info, err := w.gateway.RetrieveSession(ctx, p.ProviderSessionID)
		if err != nil {
			w.log.Error().Err(err).Str("payment_id", p.ID).Msg("retrieve session")
			continue
		}
		switch info.Status {
		case "paid":
			if err := w.uc.ProcessSuccessfulPayment(ctx, p.ID, info.IntentID); err != nil {
				w.log.Error().Err(err).Str("payment_id", p.ID).Msg("reconcile success")
				continue
			}
			w.log.Info().Str("payment_id", p.ID).Msg("stale payment reconciled as succeeded")
		case "unpaid":
			// The session may still complete; only abandon well past expiry.
			if time.Since(p.CreatedAt) > 24*time.Hour {
				if err := w.uc.ProcessFailedPayment(ctx, p.ID, "checkout session abandoned"); err != nil {
					w.log.Error().Err(err).Str("payment_id", p.ID).Msg("reconcile failure")
					continue
				}
				w.log.Info().Str("payment_id", p.ID).Msg("stale payment reconciled as failed")
			}
		}
	}
}
