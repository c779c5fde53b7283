//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"news-site-backend/internal/domain"
	"news-site-backend/internal/domain/model"
	"news-site-backend/internal/domain/ports/adapter"
	"news-site-backend/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger so test output stays clean.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- TxManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs the callback immediately with NoTX unless a test overrides it.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- Payment repo ----

type MockPaymentRepo struct {
	mu      sync.Mutex
	store   map[string]*model.Payment
	saveErr error
}

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{store: map[string]*model.Payment{}}
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) FindBySessionID(ctx context.Context, tx repository.Tx, sessionID string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.store {
		if p.ProviderSessionID == sessionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPaymentRepo) FindByIntentID(ctx context.Context, tx repository.Tx, intentID string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.store {
		if p.ProviderIntentID == intentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPaymentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, offset, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockPaymentRepo) HasPendingByUser(ctx context.Context, tx repository.Tx, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.store {
		if p.UserID == userID && p.IsPending() {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockPaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, intentID *string, processedAt *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok || !p.IsPending() {
		return false, nil
	}
	p.Status = status
	if intentID != nil {
		p.ProviderIntentID = *intentID
	}
	p.ProcessedAt = processedAt
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockPaymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, processedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Status = status
	if processedAt != nil {
		p.ProcessedAt = processedAt
	}
	p.UpdatedAt = time.Now()
	return nil
}

func (m *MockPaymentRepo) ListProcessingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.Status == model.PaymentStatusProcessing && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockPaymentRepo) DeleteTerminalOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, p := range m.store {
		if (p.Status == model.PaymentStatusFailed || p.Status == model.PaymentStatusCancelled) && p.CreatedAt.Before(olderThan) {
			delete(m.store, id)
			n++
		}
	}
	return n, nil
}

func (m *MockPaymentRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.PaymentStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[model.PaymentStatus]int{}
	for _, p := range m.store {
		out[p.Status]++
	}
	return out, nil
}

func (m *MockPaymentRepo) SumSucceededSince(ctx context.Context, tx repository.Tx, since time.Time) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, p := range m.store {
		if p.Status == model.PaymentStatusSucceeded && p.ProcessedAt != nil && !p.ProcessedAt.Before(since) {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

// ---- Payment attempt repo ----

type MockAttemptRepo struct {
	mu   sync.Mutex
	rows []*model.PaymentAttempt
}

func NewMockAttemptRepo() *MockAttemptRepo { return &MockAttemptRepo{} }

var _ repository.PaymentAttemptRepository = (*MockAttemptRepo)(nil)

func (m *MockAttemptRepo) Append(ctx context.Context, tx repository.Tx, a *model.PaymentAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *MockAttemptRepo) ListByPayment(ctx context.Context, tx repository.Tx, paymentID string) ([]*model.PaymentAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PaymentAttempt
	for _, a := range m.rows {
		if a.PaymentID == paymentID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- Refund repo ----

type MockRefundRepo struct {
	mu    sync.Mutex
	store map[string]*model.Refund
}

func NewMockRefundRepo() *MockRefundRepo {
	return &MockRefundRepo{store: map[string]*model.Refund{}}
}

var _ repository.RefundRepository = (*MockRefundRepo)(nil)

func (m *MockRefundRepo) Save(ctx context.Context, tx repository.Tx, r *model.Refund) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.store[r.ID] = &cp
	return nil
}

func (m *MockRefundRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockRefundRepo) ListByPayment(ctx context.Context, tx repository.Tx, paymentID string) ([]*model.Refund, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Refund
	for _, r := range m.store {
		if r.PaymentID == paymentID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockRefundRepo) SumSucceededByPayment(ctx context.Context, tx repository.Tx, paymentID string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, r := range m.store {
		if r.PaymentID == paymentID && r.Status == model.RefundStatusSucceeded {
			sum = sum.Add(r.Amount)
		}
	}
	return sum, nil
}

func (m *MockRefundRepo) SumReservedByPayment(ctx context.Context, tx repository.Tx, paymentID string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, r := range m.store {
		if r.PaymentID != paymentID {
			continue
		}
		if r.Status == model.RefundStatusPending || r.Status == model.RefundStatusSucceeded {
			sum = sum.Add(r.Amount)
		}
	}
	return sum, nil
}

// ---- Subscription repo ----

type MockSubscriptionRepo struct {
	mu    sync.Mutex
	store map[string]*model.Subscription // by subscription id
}

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{store: map[string]*model.Subscription{}}
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func (m *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *MockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriptionRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.store {
		if s.UserID == userID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) ListExpired(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Subscription
	for _, s := range m.store {
		if s.Status == model.SubscriptionStatusActive && s.EndDate.Before(now) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockSubscriptionRepo) ListExpiringBetween(ctx context.Context, tx repository.Tx, from, to time.Time) ([]*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Subscription
	for _, s := range m.store {
		if s.Status == model.SubscriptionStatusActive && !s.AutoRenew && s.EndDate.After(from) && s.EndDate.Before(to) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockSubscriptionRepo) CountActiveByPlan(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int{}
	for _, s := range m.store {
		if s.Status == model.SubscriptionStatusActive {
			out[s.PlanID]++
		}
	}
	return out, nil
}

// ---- History repo ----

type MockHistoryRepo struct {
	mu   sync.Mutex
	rows []*model.SubscriptionHistory
}

func NewMockHistoryRepo() *MockHistoryRepo { return &MockHistoryRepo{} }

var _ repository.SubscriptionHistoryRepository = (*MockHistoryRepo)(nil)

func (m *MockHistoryRepo) Append(ctx context.Context, tx repository.Tx, h *model.SubscriptionHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *h
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *MockHistoryRepo) ListBySubscription(ctx context.Context, tx repository.Tx, subscriptionID string) ([]*model.SubscriptionHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.SubscriptionHistory
	for _, h := range m.rows {
		if h.SubscriptionID == subscriptionID {
			cp := *h
			out = append(out, &cp)
		}
	}
	return out, nil
}

// actions returns the recorded action tags in append order.
func (m *MockHistoryRepo) actions() []model.HistoryAction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.HistoryAction, 0, len(m.rows))
	for _, h := range m.rows {
		out = append(out, h.Action)
	}
	return out
}

// ---- Plan repo ----

type MockPlanRepo struct {
	mu    sync.Mutex
	store map[string]*model.SubscriptionPlan
}

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{store: map[string]*model.SubscriptionPlan{}}
}

var _ repository.SubscriptionPlanRepository = (*MockPlanRepo)(nil)

func (m *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.SubscriptionPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPlanRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.SubscriptionPlan
	for _, p := range m.store {
		if p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- Pinned post repo ----

type MockPinnedRepo struct {
	mu    sync.Mutex
	store map[string]*model.PinnedPost // by user id
}

func NewMockPinnedRepo() *MockPinnedRepo {
	return &MockPinnedRepo{store: map[string]*model.PinnedPost{}}
}

var _ repository.PinnedPostRepository = (*MockPinnedRepo)(nil)

func (m *MockPinnedRepo) Save(ctx context.Context, tx repository.Tx, p *model.PinnedPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.UserID] = &cp
	return nil
}

func (m *MockPinnedRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.PinnedPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPinnedRepo) DeleteByUser(ctx context.Context, tx repository.Tx, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.store, userID)
	return nil
}

// ---- User + post repos ----

type MockUserRepo struct {
	mu    sync.Mutex
	store map[string]*model.User
}

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{store: map[string]*model.User{}}
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func (m *MockUserRepo) add(u *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *u
	m.store[u.ID] = &cp
}

func (m *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type MockPostRepo struct {
	mu    sync.Mutex
	store map[string]*model.Post
}

func NewMockPostRepo() *MockPostRepo {
	return &MockPostRepo{store: map[string]*model.Post{}}
}

var _ repository.PostRepository = (*MockPostRepo)(nil)

func (m *MockPostRepo) add(p *model.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
}

func (m *MockPostRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// ---- Webhook event repo ----

type MockEventRepo struct {
	mu    sync.Mutex
	store map[string]*model.WebhookEvent // by row id
	seen  map[string]bool                // provider/event_id dedup
}

func NewMockEventRepo() *MockEventRepo {
	return &MockEventRepo{store: map[string]*model.WebhookEvent{}, seen: map[string]bool{}}
}

var _ repository.WebhookEventRepository = (*MockEventRepo)(nil)

func (m *MockEventRepo) Insert(ctx context.Context, tx repository.Tx, e *model.WebhookEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := e.Provider + "/" + e.EventID
	if m.seen[key] {
		return domain.ErrAlreadyExists
	}
	m.seen[key] = true
	cp := *e
	m.store[e.ID] = &cp
	return nil
}

func (m *MockEventRepo) FindByEventID(ctx context.Context, tx repository.Tx, provider, eventID string) (*model.WebhookEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.store {
		if e.Provider == provider && e.EventID == eventID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockEventRepo) MarkOutcome(ctx context.Context, tx repository.Tx, id string, status model.WebhookEventStatus, errMsg string, processedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Status = status
	e.ErrorMessage = errMsg
	e.ProcessedAt = &processedAt
	return nil
}

func (m *MockEventRepo) ListRetryable(ctx context.Context, tx repository.Tx, since, stuckBefore time.Time, limit int) ([]*model.WebhookEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.WebhookEvent
	for _, e := range m.store {
		if e.CreatedAt.Before(since) {
			continue
		}
		stuck := e.Status == model.WebhookEventStatusPending && e.CreatedAt.Before(stuckBefore)
		if e.Status == model.WebhookEventStatusFailed || stuck {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- Gateway ----

type MockPaymentGateway struct {
	mu sync.Mutex

	CreateCustomerErr error
	CreateSessionErr  error
	RefundErr         error
	RefundDone        bool
	SessionInfo       *adapter.SessionInfo
	SessionErr        error

	RefundCalls  int
	SessionCalls int
}

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (g *MockPaymentGateway) Name() string { return "mock" }

func (g *MockPaymentGateway) CreateCustomer(ctx context.Context, user *model.User) (string, error) {
	if g.CreateCustomerErr != nil {
		return "", g.CreateCustomerErr
	}
	return "cus_mock", nil
}

func (g *MockPaymentGateway) CreateCheckoutSession(ctx context.Context, p *model.Payment, planName, successURL, cancelURL string) (*adapter.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.CreateSessionErr != nil {
		return nil, g.CreateSessionErr
	}
	g.SessionCalls++
	return &adapter.CheckoutSession{SessionID: "cs_mock", CheckoutURL: "https://checkout.example/cs_mock"}, nil
}

func (g *MockPaymentGateway) Refund(ctx context.Context, p *model.Payment, amount *decimal.Decimal, reason string) (string, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.RefundCalls++
	if g.RefundErr != nil {
		return "", false, g.RefundErr
	}
	return "re_mock", g.RefundDone, nil
}

func (g *MockPaymentGateway) RetrieveSession(ctx context.Context, sessionID string) (*adapter.SessionInfo, error) {
	if g.SessionErr != nil {
		return nil, g.SessionErr
	}
	if g.SessionInfo == nil {
		return nil, domain.ErrNotFound
	}
	cp := *g.SessionInfo
	return &cp, nil
}

// ---- Mailer ----

type MockMailer struct {
	mu      sync.Mutex
	Sent    []string // recipient addresses
	SendErr error
}

var _ adapter.Mailer = (*MockMailer)(nil)

func (m *MockMailer) Send(to, subject, body string) error {
	if m.SendErr != nil {
		return m.SendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, to)
	return nil
}
