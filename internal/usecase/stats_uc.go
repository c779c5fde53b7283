package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"news-site-backend/internal/domain/model"
	"news-site-backend/internal/domain/ports/repository"
)

// Compile-time check
var _ StatsUseCase = (*statsUC)(nil)

// PaymentAnalytics is the admin-facing aggregate view.
type PaymentAnalytics struct {
	CountByStatus map[model.PaymentStatus]int `json:"count_by_status"`
	SuccessRate   float64                     `json:"success_rate"`
	RevenueMonth  decimal.Decimal             `json:"revenue_month"`
	RevenueYear   decimal.Decimal             `json:"revenue_year"`
	ActiveByPlan  map[string]int              `json:"active_by_plan"`
}

type StatsUseCase interface {
	PaymentAnalytics(ctx context.Context) (*PaymentAnalytics, error)
}

type statsUC struct {
	payments repository.PaymentRepository
	subs     repository.SubscriptionRepository
	log      *zerolog.Logger
}

func NewStatsUseCase(payments repository.PaymentRepository, subs repository.SubscriptionRepository, logger *zerolog.Logger) *statsUC {
	lg := logger.With().Str("component", "stats_uc").Logger()
	return &statsUC{payments: payments, subs: subs, log: &lg}
}

func (s *statsUC) PaymentAnalytics(ctx context.Context) (*PaymentAnalytics, error) {
	counts, err := s.payments.CountByStatus(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())

	revMonth, err := s.payments.SumSucceededSince(ctx, repository.NoTX, monthStart)
	if err != nil {
		return nil, err
	}
	revYear, err := s.payments.SumSucceededSince(ctx, repository.NoTX, yearStart)
	if err != nil {
		return nil, err
	}
	activeByPlan, err := s.subs.CountActiveByPlan(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}

	total, terminal := 0, 0
	for st, n := range counts {
		total += n
		switch st {
		case model.PaymentStatusSucceeded, model.PaymentStatusFailed, model.PaymentStatusRefunded:
			terminal += n
		}
	}
	rate := 0.0
	if terminal > 0 {
		rate = float64(counts[model.PaymentStatusSucceeded]+counts[model.PaymentStatusRefunded]) / float64(terminal)
	}

	return &PaymentAnalytics{
		CountByStatus: counts,
		SuccessRate:   rate,
		RevenueMonth:  revMonth,
		RevenueYear:   revYear,
		ActiveByPlan:  activeByPlan,
	}, nil
}
