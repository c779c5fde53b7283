//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"news-site-backend/internal/domain"
	"news-site-backend/internal/domain/model"
	"news-site-backend/internal/usecase"
)

type subscriptionUCTestDeps struct {
	subs    *MockSubscriptionRepo
	history *MockHistoryRepo
	plans   *MockPlanRepo
	pinned  *MockPinnedRepo
	uc      usecase.SubscriptionUseCase
}

func newSubscriptionUCDeps() *subscriptionUCTestDeps {
	d := &subscriptionUCTestDeps{
		subs:    NewMockSubscriptionRepo(),
		history: NewMockHistoryRepo(),
		plans:   NewMockPlanRepo(),
		pinned:  NewMockPinnedRepo(),
	}
	d.uc = usecase.NewSubscriptionUseCase(NewMockTxManager(), d.subs, d.history, d.plans, d.pinned, newTestLogger())
	return d
}

func (d *subscriptionUCTestDeps) seedActiveSub(id, userID string, endDate time.Time) *model.Subscription {
	sub := &model.Subscription{
		ID:        id,
		UserID:    userID,
		PlanID:    "plan-1",
		Status:    model.SubscriptionStatusActive,
		StartDate: endDate.Add(-30 * 24 * time.Hour),
		EndDate:   endDate,
	}
	_ = d.subs.Save(context.Background(), nil, sub)
	return sub
}

func TestSubscriptionUseCase_CancelByUser(t *testing.T) {
	ctx := context.Background()
	d := newSubscriptionUCDeps()
	d.seedActiveSub("sub-1", "user-1", time.Now().Add(10*24*time.Hour))
	_ = d.pinned.Save(ctx, nil, &model.PinnedPost{ID: "pin-1", UserID: "user-1", PostID: "post-1"})

	if err := d.uc.CancelByUser(ctx, "user-1"); err != nil {
		t.Fatalf("CancelByUser: %v", err)
	}

	sub, _ := d.subs.FindByUser(ctx, nil, "user-1")
	if sub.Status != model.SubscriptionStatusCancelled {
		t.Fatalf("status = %s, want cancelled", sub.Status)
	}
	if sub.AutoRenew {
		t.Fatal("auto renew must be cleared on cancellation")
	}
	if _, err := d.pinned.FindByUser(ctx, nil, "user-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatal("pinned post survived cancellation")
	}
	got := d.history.actions()
	if len(got) != 1 || got[0] != model.HistoryActionCancelled {
		t.Fatalf("history = %v, want [cancelled]", got)
	}

	// Cancelling twice is a conflict.
	if err := d.uc.CancelByUser(ctx, "user-1"); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestSubscriptionUseCase_CancelByUser_NoSubscription(t *testing.T) {
	d := newSubscriptionUCDeps()
	if err := d.uc.CancelByUser(context.Background(), "user-x"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSubscriptionUseCase_ExpireDue(t *testing.T) {
	ctx := context.Background()
	d := newSubscriptionUCDeps()
	now := time.Now()

	d.seedActiveSub("sub-due", "user-1", now.Add(-time.Hour))
	d.seedActiveSub("sub-live", "user-2", now.Add(24*time.Hour))
	_ = d.pinned.Save(ctx, nil, &model.PinnedPost{ID: "pin-1", UserID: "user-1", PostID: "post-1"})
	_ = d.pinned.Save(ctx, nil, &model.PinnedPost{ID: "pin-2", UserID: "user-2", PostID: "post-2"})

	n, err := d.uc.ExpireDue(ctx, now, 100)
	if err != nil {
		t.Fatalf("ExpireDue: %v", err)
	}
	if n != 1 {
		t.Fatalf("expired = %d, want 1", n)
	}

	due, _ := d.subs.FindByID(ctx, nil, "sub-due")
	if due.Status != model.SubscriptionStatusExpired {
		t.Fatalf("overdue status = %s, want expired", due.Status)
	}
	live, _ := d.subs.FindByID(ctx, nil, "sub-live")
	if live.Status != model.SubscriptionStatusActive {
		t.Fatalf("live subscription touched: %s", live.Status)
	}
	if _, err := d.pinned.FindByUser(ctx, nil, "user-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatal("pinned post survived expiry")
	}
	if _, err := d.pinned.FindByUser(ctx, nil, "user-2"); err != nil {
		t.Fatal("live user's pin removed")
	}
	got := d.history.actions()
	if len(got) != 1 || got[0] != model.HistoryActionExpired {
		t.Fatalf("history = %v, want [expired]", got)
	}
}

func TestSubscriptionUseCase_ExpireDue_Idempotent(t *testing.T) {
	ctx := context.Background()
	d := newSubscriptionUCDeps()
	now := time.Now()
	d.seedActiveSub("sub-due", "user-1", now.Add(-time.Hour))

	if _, err := d.uc.ExpireDue(ctx, now, 100); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	n, err := d.uc.ExpireDue(ctx, now, 100)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if n != 0 {
		t.Fatalf("second sweep expired %d, want 0", n)
	}
}

func TestSubscriptionUseCase_ListPlans(t *testing.T) {
	ctx := context.Background()
	d := newSubscriptionUCDeps()
	active, _ := model.NewSubscriptionPlan("plan-1", "Monthly", 30, decimal.RequireFromString("9.99"), "USD")
	retired, _ := model.NewSubscriptionPlan("plan-2", "Legacy", 30, decimal.RequireFromString("4.99"), "USD")
	retired.IsActive = false
	_ = d.plans.Save(ctx, nil, active)
	_ = d.plans.Save(ctx, nil, retired)

	plans, err := d.uc.ListPlans(ctx)
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(plans) != 1 || plans[0].ID != "plan-1" {
		t.Fatalf("plans = %+v, want just the active plan", plans)
	}
}

func TestSubscriptionUseCase_History(t *testing.T) {
	ctx := context.Background()
	d := newSubscriptionUCDeps()
	d.seedActiveSub("sub-1", "user-1", time.Now().Add(24*time.Hour))
	_ = d.history.Append(ctx, nil, &model.SubscriptionHistory{ID: "h1", SubscriptionID: "sub-1", Action: model.HistoryActionCreated})
	_ = d.history.Append(ctx, nil, &model.SubscriptionHistory{ID: "h2", SubscriptionID: "sub-1", Action: model.HistoryActionActivated})
	_ = d.history.Append(ctx, nil, &model.SubscriptionHistory{ID: "h3", SubscriptionID: "sub-other", Action: model.HistoryActionCreated})

	rows, err := d.uc.History(ctx, "user-1")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
}
