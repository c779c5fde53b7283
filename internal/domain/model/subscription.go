package model

import (
	"time"

	"github.com/shopspring/decimal"

	"news-site-backend/internal/domain"
)

// SubscriptionPlan is a purchasable tier.
type SubscriptionPlan struct {
	ID              string // UUID
	Name            string
	Price           decimal.Decimal
	Currency        string
	DurationDays    int
	ProviderPriceID string
	Features        map[string]any
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewSubscriptionPlan validates and constructs a plan.
func NewSubscriptionPlan(id, name string, durationDays int, price decimal.Decimal, currency string) (*SubscriptionPlan, error) {
	if name == "" || durationDays <= 0 || price.IsNegative() {
		return nil, domain.ErrInvalidArgument
	}
	if currency == "" {
		currency = "USD"
	}
	now := time.Now()
	return &SubscriptionPlan{
		ID:           id,
		Name:         name,
		Price:        price,
		Currency:     currency,
		DurationDays: durationDays,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

type SubscriptionStatus string

const (
	SubscriptionStatusPending   SubscriptionStatus = "pending"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// Subscription is a user's single subscription instance (one per user).
type Subscription struct {
	ID                     string // UUID
	UserID                 string // UUID, unique
	PlanID                 string
	Status                 SubscriptionStatus
	StartDate              time.Time
	EndDate                time.Time
	AutoRenew              bool
	ProviderSubscriptionID string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// IsActive reports whether the subscription currently grants entitlements:
// status is active AND the end date has not passed.
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive && s.EndDate.After(time.Now())
}

// DaysRemaining returns whole days until expiry, zero when not active.
func (s *Subscription) DaysRemaining() int {
	if !s.IsActive() {
		return 0
	}
	d := int(time.Until(s.EndDate).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

// Activate transitions to active and recomputes the window from now.
// The end date is always now + plan duration; a prior end date is never
// extended (activation after payment is not a renewal stack).
func (s *Subscription) Activate(plan *SubscriptionPlan) {
	now := time.Now()
	s.Status = SubscriptionStatusActive
	s.StartDate = now
	s.EndDate = now.Add(time.Duration(plan.DurationDays) * 24 * time.Hour)
	s.UpdatedAt = now
}

// Cancel transitions to cancelled and disables auto-renew.
func (s *Subscription) Cancel() {
	s.Status = SubscriptionStatusCancelled
	s.AutoRenew = false
	s.UpdatedAt = time.Now()
}

// Expire marks the subscription as lapsed.
func (s *Subscription) Expire() {
	s.Status = SubscriptionStatusExpired
	s.UpdatedAt = time.Now()
}

type HistoryAction string

const (
	HistoryActionCreated       HistoryAction = "created"
	HistoryActionActivated     HistoryAction = "activated"
	HistoryActionRenewed       HistoryAction = "renewed"
	HistoryActionCancelled     HistoryAction = "cancelled"
	HistoryActionExpired       HistoryAction = "expired"
	HistoryActionPaymentFailed HistoryAction = "payment_failed"
	HistoryActionPostPinned    HistoryAction = "post_pinned"
	HistoryActionPostUnpinned  HistoryAction = "post_unpinned"
)

// SubscriptionHistory is an append-only audit row. Never mutated or deleted.
type SubscriptionHistory struct {
	ID             string // ULID
	SubscriptionID string
	Action         HistoryAction
	Description    string
	Meta           map[string]any
	CreatedAt      time.Time
}

// PinnedPost exists only while the owning user holds an active subscription
// and only for a post the user authored. Both invariants are enforced by the
// use case at write time, not by the store.
type PinnedPost struct {
	ID       string // UUID
	UserID   string // unique
	PostID   string // unique
	PinnedAt time.Time
}
